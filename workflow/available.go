package workflow

// AvailableOperations returns the operations a game is offered. Downloads
// need the release index, so offline only uninstall and archive installs
// remain. An installed game can be uninstalled or reinstalled, a clean one
// installed.
func AvailableOperations(online, installed bool) []Operation {
	switch {
	case online && installed:
		return []Operation{OpUninstall, OpReinstall}
	case online:
		return []Operation{OpInstall, OpInstallArchive}
	case installed:
		return []Operation{OpUninstall}
	default:
		return []Operation{OpInstallArchive}
	}
}

// Allowed reports whether op is in AvailableOperations(online, installed).
func Allowed(op Operation, online, installed bool) bool {
	for _, o := range AvailableOperations(online, installed) {
		if o == op {
			return true
		}
	}
	return false
}
