package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/agentskills/marketplace/internal/installer"
	"github.com/agentskills/marketplace/pkg/logger"
)

const defaultAPIBaseURL = "https://skills.example.com"

func defaultSkillsDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".claude/skills"
	}
	return filepath.Join(home, ".claude", "skills")
}

// SkillCommand returns the skill installer command.
func SkillCommand() *cli.Command {
	return &cli.Command{
		Name:  "skill",
		Usage: "Install and list marketplace skills",
		Subcommands: []*cli.Command{
			{
				Name:      "install",
				Usage:     "Download a skill bundle and extract it into the skills directory",
				ArgsUsage: "<skill-id>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "dir",
						Usage:   "Skills directory to install into",
						Value:   defaultSkillsDir(),
						EnvVars: []string{"SKILLS_DIR"},
					},
					&cli.StringFlag{
						Name:    "api",
						Usage:   "Marketplace API base URL",
						Value:   defaultAPIBaseURL,
						EnvVars: []string{"MARKETPLACE_API_URL"},
					},
				},
				Action: skillInstallAction,
			},
			{
				Name:  "list",
				Usage: "List installed skills",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "dir",
						Usage:   "Skills directory to scan",
						Value:   defaultSkillsDir(),
						EnvVars: []string{"SKILLS_DIR"},
					},
				},
				Action: skillListAction,
			},
		},
	}
}

func skillInstallAction(ctx *cli.Context) error {
	log := getLogger(ctx)

	skillID := ctx.Args().First()
	if skillID == "" {
		return fmt.Errorf("skill id is required: marketplace skill install <skill-id>")
	}

	inst, err := installer.New(installer.Config{
		BaseURL: ctx.String("api"),
		Logger:  log,
	})
	if err != nil {
		return fmt.Errorf("failed to create installer: %w", err)
	}

	result, err := inst.Install(ctx.Context, skillID, ctx.String("dir"))
	if err != nil {
		log.Error("Install failed", logger.SkillIDField(skillID), logger.ErrorField(err))
		return fmt.Errorf("failed to install %s: %w", skillID, err)
	}

	fmt.Printf("Installed %s to %s (%d files)\n", skillID, result.SkillDir, len(result.Files))
	return nil
}

func skillListAction(ctx *cli.Context) error {
	inst, err := installer.New(installer.Config{
		BaseURL: ctx.String("api"),
		Logger:  getLogger(ctx),
	})
	if err != nil {
		return fmt.Errorf("failed to create installer: %w", err)
	}

	skills, err := inst.List(ctx.String("dir"))
	if err != nil {
		return fmt.Errorf("failed to list skills: %w", err)
	}

	if len(skills) == 0 {
		fmt.Println("No skills installed")
		return nil
	}
	for _, name := range skills {
		fmt.Println(name)
	}
	return nil
}
