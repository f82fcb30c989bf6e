package commands

const (
	_etc = "/usr/local/etc/sheets-trader"

	DEFAULT_CREDENTIALS = _etc + "/.google/credentials.json"
)
