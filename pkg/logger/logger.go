package logger

// LoggerInstance is one logging backend. Every process installs a console
// backend; the worker adds a second one that mirrors lines onto the response
// exchange once its channel exists.
type LoggerInstance interface {
	Log(message string, keyvals ...any)
	Debug(message string, keyvals ...any)
	Info(message string, keyvals ...any)
	Warn(message string, keyvals ...any)
	Error(message string, keyvals ...any)
	Fatal(message string, keyvals ...any)
}

var singleton []LoggerInstance

// Init installs the global backends, replacing any previous set. Calling it
// again later is fine; log calls before the first Init are dropped.
func Init(instances ...LoggerInstance) {
	singleton = instances
}

func each(fn func(LoggerInstance)) {
	for _, instance := range singleton {
		fn(instance)
	}
}

// Log writes at each backend's default level.
func Log(message string, keyvals ...any) {
	each(func(i LoggerInstance) { i.Log(message, keyvals...) })
}

func Debug(message string, keyvals ...any) {
	each(func(i LoggerInstance) { i.Debug(message, keyvals...) })
}

func Info(message string, keyvals ...any) {
	each(func(i LoggerInstance) { i.Info(message, keyvals...) })
}

func Warn(message string, keyvals ...any) {
	each(func(i LoggerInstance) { i.Warn(message, keyvals...) })
}

func Error(message string, keyvals ...any) {
	each(func(i LoggerInstance) { i.Error(message, keyvals...) })
}

// Fatal reaches every backend; termination is the console backend's job, so
// forwarding backends run first in the Init order.
func Fatal(message string, keyvals ...any) {
	each(func(i LoggerInstance) { i.Fatal(message, keyvals...) })
}
