package alter

import (
	"bufio"
	"io"
	"regexp"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	"github.com/pkg/errors"
	"github.com/pseudomuto/schematool/pkg/consts"
)

const (
	// Up is the direction of an alter that moves the schema forward.
	Up Direction = "up"

	// Down is the direction of an alter that reverts its up-alter.
	Down Direction = "down"

	// NoDirection is returned when a header does not declare a direction.
	NoDirection Direction = ""
)

const (
	KeyDirection  = "direction"
	KeyRef        = "ref"
	KeyBackRef    = "backref"
	KeyRequireEnv = "require-env"
	KeySkipEnv    = "skip-env"
)

var (
	headerLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Marker", Pattern: `--`},
		{Name: "Key", Pattern: `[a-zA-Z0-9_-]+`},
		{Name: "Colon", Pattern: `:`},
		{Name: "Whitespace", Pattern: `\s+`},
		{Name: "Other", Pattern: `.`},
	})

	headerParser = participle.MustBuild[keyValueLine](
		participle.Lexer(headerLexer),
	)

	commentOrBlank = regexp.MustCompile(`^\s*--|^\s*$`)
)

type (
	// Direction is either Up or Down.
	Direction string

	// Header is the metadata parsed from the leading comment block of an
	// alter file.
	Header struct {
		Direction Direction
		Meta      map[string]string
	}

	// keyValueLine is a single `-- key: value` header comment. The value is
	// captured token by token so the value keeps its spacing.
	keyValueLine struct {
		Key   string   `parser:"Whitespace? Marker Whitespace? @Key Whitespace? Colon"`
		Value []string `parser:"@(Marker | Key | Colon | Whitespace | Other)*"`
	}
)

// ReadHeader reads the first consts.HeaderLines lines from r and parses them.
func ReadHeader(r io.Reader) (Header, error) {
	lines := make([]string, 0, consts.HeaderLines)

	// header lines may be arbitrarily long
	br := bufio.NewReader(r)
	for len(lines) < consts.HeaderLines {
		line, err := br.ReadString('\n')
		if line != "" {
			lines = append(lines, strings.TrimRight(line, "\r\n"))
		}

		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return Header{}, errors.Wrap(err, "failed to read alter header")
		}
	}

	return ParseHeader(lines), nil
}

// ParseHeader extracts the direction and key/value metadata from the given
// header lines.
func ParseHeader(lines []string) Header {
	return Header{
		Direction: ParseDirection(lines),
		Meta:      ParseMeta(lines),
	}
}

// ParseDirection returns the direction declared by a `-- direction: up|down`
// line. When several lines declare one, the last wins.
func ParseDirection(lines []string) Direction {
	dir := NoDirection
	for _, line := range lines {
		key, value, ok := parseKeyValue(line)
		if !ok || key != KeyDirection {
			continue
		}

		switch {
		case strings.HasPrefix(value, string(Up)):
			dir = Up
		case strings.HasPrefix(value, string(Down)):
			dir = Down
		}
	}

	return dir
}

// ParseMeta collects `-- key: value` pairs until the first line that is
// neither blank nor a comment. Comment lines that are not key/value pairs and
// pairs with an empty value are skipped.
func ParseMeta(lines []string) map[string]string {
	meta := make(map[string]string)
	for _, line := range lines {
		if !commentOrBlank.MatchString(line) {
			break
		}

		key, value, ok := parseKeyValue(line)
		if ok && value != "" {
			meta[key] = value
		}
	}

	return meta
}

// ParseEnv splits a comma separated list of environment names, validating
// each against consts.EnvNameStandard.
func ParseEnv(value string) ([]string, error) {
	parts := strings.Split(value, ",")
	envs := make([]string, 0, len(parts))
	for _, part := range parts {
		env := strings.TrimSpace(part)
		if !consts.EnvNameStandard.MatchString(env) {
			return nil, &ConfigError{Msg: "Invalid environment name: '" + env + "'"}
		}

		envs = append(envs, env)
	}

	return envs, nil
}

func parseKeyValue(line string) (string, string, bool) {
	kv, err := headerParser.ParseString("", line)
	if err != nil {
		return "", "", false
	}

	return kv.Key, strings.TrimSpace(strings.Join(kv.Value, "")), true
}
