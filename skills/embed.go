package skills

import (
	_ "embed"
)

const SkillFileName = "SKILL.md"

const (
	CLIName  = "reachy-mini-cli"
	AppsName = "reachy-mini-apps"
)

//go:embed reachy-mini-cli/SKILL.md
var CLIContent string

//go:embed reachy-mini-apps/SKILL.md
var AppsContent string

// All maps skill names to their embedded content.
var All = map[string]string{
	CLIName:  CLIContent,
	AppsName: AppsContent,
}
