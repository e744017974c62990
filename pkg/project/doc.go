// Package project prepares a directory for schematool.
//
// Initialize writes a default schema.yaml and an empty alters directory when
// no config file exists yet. It is idempotent and never overwrites existing
// files.
//
//	project-root/
//	├── schema.yaml   # database and history settings
//	└── alters/       # <ref>-<name>-up.sql / <ref>-<name>-down.sql pairs
//
// InstallHook links the configured pre-commit hook into the nearest git
// repository so `schema check` can run before every commit.
package project
