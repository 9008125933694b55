package providers

import (
	"github.com/samber/do/v2"

	"github.com/pathflowapp/pathflow/internal/config"
	"github.com/pathflowapp/pathflow/internal/logger"
	"github.com/pathflowapp/pathflow/internal/validate"
)

// ProvideValidator builds the pipeline validator from the configured rules.
//
// With a companion file configured, events are treated as new folders: the
// folder is validated, then the companion is awaited inside it, and its path
// replaces the folder path downstream. Otherwise events are validated as
// regular files.
func ProvideValidator(i do.Injector) (validate.Validator, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if cfg.Rules.AwaitCompanion != "" {
		folderValidator, err := validate.NewFolderValidator(validate.Rules{
			NamePattern: cfg.Rules.NamePattern,
		})
		if err != nil {
			return nil, err
		}

		await := validate.NewAwaitFileValidator(cfg.Rules.AwaitCompanion, validate.AwaitOptions{
			Timeout:          cfg.Rules.AwaitTimeout,
			ResolveCompanion: true,
		}, log.Logger)

		if cfg.Filter.IgnoreDirectories {
			log.Warn("Companion mode validates folders but directory events are ignored; " +
				"set IGNORE_DIRECTORIES=false to receive them")
		}

		log.Info("Awaiting companion file before acceptance",
			"companion", cfg.Rules.AwaitCompanion,
			"timeout", cfg.Rules.AwaitTimeout,
		)

		return validate.NewCompositeValidator(folderValidator, await), nil
	}

	rules := validate.Rules{
		NamePattern: cfg.Rules.NamePattern,
	}
	if cfg.Rules.MinSize >= 0 {
		rules.MinSize = validate.Int64(cfg.Rules.MinSize)
	}
	if cfg.Rules.MaxSize >= 0 {
		rules.MaxSize = validate.Int64(cfg.Rules.MaxSize)
	}

	return validate.NewFileValidator(rules)
}
