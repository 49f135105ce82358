// Package pass holds the local IR rewrites run over a finished function and
// the pipeline that sequences them.
//
// Every pass follows the same shape: collect the values that must survive
// (those read across a block call), filter ops in place in one forward scan,
// then rewrite remaining reads in a second scan.
package pass
