//go:build chaosdebug

package dispatcher

const debugBuild = true
