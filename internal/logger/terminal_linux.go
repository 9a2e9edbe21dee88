//go:build linux

package logger

// TCGETS is the ioctl request for reading terminal attributes on Linux
const ioctlTermiosReq = 0x5401
