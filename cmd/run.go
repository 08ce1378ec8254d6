package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/abhisek/timestables/internal/catalog"
	"github.com/abhisek/timestables/internal/clock"
	"github.com/abhisek/timestables/internal/config"
	"github.com/abhisek/timestables/internal/distractor"
	"github.com/abhisek/timestables/internal/learner"
	"github.com/abhisek/timestables/internal/llm"
	"github.com/abhisek/timestables/internal/logger"
	"github.com/abhisek/timestables/internal/progression"
	"github.com/abhisek/timestables/internal/rng"
	"github.com/abhisek/timestables/internal/store"
)

// environment is what every subcommand resolves from flags before touching a
// learner: configuration, catalog and logger.
type environment struct {
	v    *viper.Viper
	cfg  config.Config
	cat  *catalog.Catalog
	log  *logger.Logger
	seed uint64
}

// loadEnvironment reads flags, configuration and catalog. Interactive commands
// log only when --log-file is given so records do not draw over the TUI.
func loadEnvironment(cmd *cobra.Command, interactive bool) (*environment, error) {
	v := viperForCmd(cmd)

	log, err := newLogger(v, interactive)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	cfg, err := config.Load(v.GetString("config"))
	if err != nil {
		return nil, err
	}

	cat := catalog.Default()
	if path := v.GetString("catalog"); path != "" {
		cat, err = catalog.Load(path)
		if err != nil {
			return nil, err
		}
	}
	log.Debug("environment loaded", "catalog", cat.String(), "difficulties", len(cfg.Difficulties))

	return &environment{v: v, cfg: cfg, cat: cat, log: log, seed: v.GetUint64("seed")}, nil
}

func newLogger(v *viper.Viper, interactive bool) (*logger.Logger, error) {
	level := v.GetString("log-level")
	if path := v.GetString("log-file"); path != "" {
		return logger.NewWithOutput("prod", level, path)
	}
	if interactive {
		return logger.Nop(), nil
	}
	return logger.New("dev", level)
}

func (env *environment) learnerID() string {
	if id := env.v.GetString("learner"); id != "" {
		return id
	}
	return learner.DefaultLearnerID
}

// source returns the seeded random source, offset by n so concurrent
// learners in one run do not share a sequence.
func (env *environment) source(n uint64) *rng.Source {
	if env.seed == 0 {
		return rng.NewTimeSeeded()
	}
	return rng.New(env.seed + n)
}

// distractors builds the generator, adding the LLM strategy when the
// configuration enables it and a provider can be built.
func (env *environment) distractors(ctx context.Context, src *rng.Source, recorder store.LLMRequestLog) *distractor.Generator {
	opts := []distractor.Option{distractor.WithLogger(env.log)}

	if sc, ok := env.cfg.Distractors.Strategies[distractor.NameLLM]; ok && sc.Enabled {
		llmCfg, err := llm.ConfigFromEnv()
		if err == nil {
			var provider llm.Provider
			provider, err = llm.NewProvider(ctx, llmCfg, recorder, env.log)
			if err == nil {
				opts = append(opts, distractor.WithStrategy(
					distractor.NewLLMStrategy(provider, env.cfg.Distractors.LLMTimeout, env.log)))
			}
		}
		if err != nil {
			env.log.Warn("llm distractors unavailable", "error", err)
		}
	}

	return distractor.New(env.cfg.Distractors, src, opts...)
}

// engineDeps are the per-learner collaborators of newOrchestrator.
type engineDeps struct {
	Persistence store.Persistence
	EventLog    store.EventLog
	LLMLog      store.LLMRequestLog
	LearnerID   string
	Clock       clock.Clock
	RNG         *rng.Source
}

func (env *environment) newOrchestrator(ctx context.Context, d engineDeps) (*progression.Orchestrator, *learner.Store, error) {
	stages := env.cfg.StageList()
	ls := learner.New(d.Persistence, env.cat, stages, d.Clock, d.RNG, learner.Options{
		LearnerID:        d.LearnerID,
		AlwaysStartFresh: env.cfg.Session.AlwaysStartFresh,
		MaxAnswerRecords: env.cfg.Session.MaxAnswerRecords,
		Logger:           env.log,
	})

	o, err := progression.New(progression.Deps{
		Config:      env.cfg,
		Catalog:     env.cat,
		Learner:     ls,
		Clock:       d.Clock,
		RNG:         d.RNG,
		EventLog:    d.EventLog,
		Distractors: env.distractors(ctx, d.RNG, d.LLMLog),
		Logger:      env.log,
	})
	if err != nil {
		return nil, nil, err
	}
	return o, ls, nil
}

// openLearner opens the database and builds the orchestrator for the
// --learner flag. existed reports whether the learner had saved state.
func (env *environment) openLearner(ctx context.Context) (o *progression.Orchestrator, ls *learner.Store, st *store.Store, existed bool, err error) {
	st, err = openStore(env.v)
	if err != nil {
		return nil, nil, nil, false, err
	}

	id := env.learnerID()
	existed, err = st.Exists(ctx, learner.Key(id))
	if err != nil {
		st.Close()
		return nil, nil, nil, false, fmt.Errorf("check learner %q: %w", id, err)
	}

	o, ls, err = env.newOrchestrator(ctx, engineDeps{
		Persistence: st,
		EventLog:    st,
		LLMLog:      st.EventRepo(),
		LearnerID:   id,
		Clock:       clock.Real{},
		RNG:         env.source(0),
	})
	if err != nil {
		st.Close()
		return nil, nil, nil, false, err
	}
	return o, ls, st, existed, nil
}
