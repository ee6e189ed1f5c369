// Package logx is a thin structured-logging layer over zerolog.
//
// Components take a logx.Logger by value; the zero value and Nop() are safe
// no-op loggers, which keeps tests quiet without nil checks at call sites.
package logx
