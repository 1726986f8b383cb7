// Package shell implements the cluster backend that drives kubectl on a
// remote jump host over SSH.
package shell
