package logsink

import "github.com/golang/glog"

// Glog writes records through glog. Debug records need -v=1.
type Glog struct{}

func (Glog) Log(level Level, tag, msg string) {
	switch level {
	case Error:
		glog.ErrorDepth(2, tag+": "+msg)
	case Warn:
		glog.WarningDepth(2, tag+": "+msg)
	case Info:
		glog.InfoDepth(2, tag+": "+msg)
	default:
		if glog.V(1) {
			glog.InfoDepth(2, tag+": "+msg)
		}
	}
}
