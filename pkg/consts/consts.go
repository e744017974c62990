package consts

import (
	"os"
	"regexp"
)

const (
	// ModeDir is the standard file mode for creating directories
	ModeDir = os.FileMode(0o755)

	// ModeFile is the standard file mode for creating files
	ModeFile = os.FileMode(0o644)

	// HeaderLines is the number of leading lines of an alter file that are
	// inspected for metadata.
	HeaderLines = 4

	// DefaultHistoryTable is the history table name used when none is configured.
	DefaultHistoryTable = "history"

	UpSuffix   = "-up.sql"
	DownSuffix = "-down.sql"
)

var (
	// FilenameStandard matches alter file names: <12-digit ref>-<name>-(up|down).sql
	FilenameStandard = regexp.MustCompile(`^\d{12}-.+-(up|down)\.sql$`)

	// EnvNameStandard matches a single environment token.
	EnvNameStandard = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
)
