package planning

import (
	"context"
	"fmt"

	"github.com/virtus-coach/coach/internal/calendar"
	"github.com/virtus-coach/coach/internal/corpus"
	"github.com/virtus-coach/coach/internal/llmclient"
	"github.com/virtus-coach/coach/internal/logging"
)

const milesToMeters = 1609.34

// Pipeline wires the corpus cache, tool client, and optional completer into
// one Run call that walks B2 through B7 in order (spec.md §4.4).
type Pipeline struct {
	cache     *corpus.Cache
	tools     ToolCaller
	completer llmclient.Completer
	logger    *logging.Logger
}

// New builds a Pipeline. completer may be nil (B6 always has a
// deterministic fallback).
func New(cache *corpus.Cache, tools ToolCaller, completer llmclient.Completer, logger *logging.Logger) *Pipeline {
	return &Pipeline{cache: cache, tools: tools, completer: completer, logger: logger}
}

// Run executes the full pipeline for one athlete profile and persists the
// result, returning the materialized Plan. A stage failure aborts with no
// partial persistence (spec.md §4.4).
func (p *Pipeline) Run(ctx context.Context, planID string, profile AthleteProfile, fatigueScale float64, queryVector []float64) (Plan, error) {
	weeks, err := MacroPlan(profile)
	if err != nil {
		return Plan{}, err
	}

	philosophies, err := p.cache.Philosophies()
	if err != nil {
		return Plan{}, fmt.Errorf("planning: loading philosophies: %w", err)
	}
	selection, err := SelectPhilosophy(philosophies, profile, queryVector)
	if err != nil {
		return Plan{}, err
	}
	p.logger.Info("planning: B2.5 philosophy selected", "philosophy_id", selection.Philosophy.ID, "scores", selection.Scores)

	structures, err := p.cache.Structures()
	if err != nil {
		return Plan{}, fmt.Errorf("planning: loading structures: %w", err)
	}
	templates, err := p.cache.Templates()
	if err != nil {
		return Plan{}, fmt.Errorf("planning: loading templates: %w", err)
	}

	var allSessions []calendar.MaterializedSession
	for _, week := range weeks {
		daysToRace := int(profile.RaceDate.Sub(week.WeekStart).Hours() / 24)

		structure, err := LoadStructure(structures, selection.Philosophy.ID, profile, week, daysToRace)
		if err != nil {
			return Plan{}, err
		}

		days, err := MapHardGroupsToIntent(structure)
		if err != nil {
			return Plan{}, err
		}

		allocated, err := AllocateVolume(days, week.TargetWeeklyMiles, fatigueScale)
		if err != nil {
			return Plan{}, err
		}

		bindings, err := SelectTemplates(allocated, templates, milesToMeters)
		if err != nil {
			return Plan{}, err
		}

		for _, binding := range bindings {
			if binding.Day.Intent == calendar.IntentRest {
				continue
			}
			sess, err := GenerateSessionText(ctx, binding, week.WeekStart, profile, planID, p.completer)
			if err != nil {
				return Plan{}, err
			}
			allSessions = append(allSessions, sess)
		}
	}

	plan := Plan{PlanID: planID, UserID: profile.UserID, Sessions: allSessions}
	if err := Persist(ctx, p.tools, plan); err != nil {
		return Plan{}, err
	}
	return plan, nil
}
