package fsstore

import "github.com/sirupsen/logrus"

// badgerLogger routes Badger's internal log lines to the node logger. Info
// lines are demoted to Debug; Badger is chatty on open and compaction.
type badgerLogger struct {
	entry *logrus.Entry
}

func (l badgerLogger) Errorf(f string, v ...interface{}) {
	l.entry.Errorf(f, v...)
}

func (l badgerLogger) Warningf(f string, v ...interface{}) {
	l.entry.Warnf(f, v...)
}

func (l badgerLogger) Infof(f string, v ...interface{}) {
	l.entry.Debugf(f, v...)
}

func (l badgerLogger) Debugf(f string, v ...interface{}) {
	l.entry.Debugf(f, v...)
}
