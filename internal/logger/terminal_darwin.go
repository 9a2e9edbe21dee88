//go:build darwin

package logger

import "syscall"

// macOS reads terminal attributes with TIOCGETA rather than TCGETS
const ioctlTermiosReq = syscall.TIOCGETA
