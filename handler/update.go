package handler

// Updater receives the reserved CheckForUpdate and ApplyUpdate opcodes.
// Implementations are expected to perform an actual update check or apply
// step; none exists yet.
type Updater interface {
	CheckForUpdate()
	ApplyUpdate()
}

// LogUpdater is the placeholder Updater. It only logs.
type LogUpdater struct{}

func (LogUpdater) CheckForUpdate() {
	logger().Notice("check for update: no update transport configured")
}

func (LogUpdater) ApplyUpdate() {
	logger().Notice("apply update: no update transport configured")
}

// UpdaterFuncs adapts two functions to Updater. Nil fields fall back to
// LogUpdater.
type UpdaterFuncs struct {
	Check func()
	Apply func()
}

func (u UpdaterFuncs) CheckForUpdate() {
	if u.Check == nil {
		LogUpdater{}.CheckForUpdate()
		return
	}
	u.Check()
}

func (u UpdaterFuncs) ApplyUpdate() {
	if u.Apply == nil {
		LogUpdater{}.ApplyUpdate()
		return
	}
	u.Apply()
}
