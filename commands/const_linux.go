package commands

const (
	_var = "/usr/local/var/uhppoted"

	DEFAULT_WORKDIR = _var + "/sheets-sync"
)
