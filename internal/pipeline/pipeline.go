package pipeline

import (
	"context"
	"hash/fnv"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/ppiankov/truthlens/internal/cache"
	"github.com/ppiankov/truthlens/internal/llm"
	"github.com/ppiankov/truthlens/internal/model"
	"github.com/ppiankov/truthlens/internal/score"
	"github.com/sirupsen/logrus"
)

// HeuristicSource names the local estimator in results and issues
const HeuristicSource = "heuristic"

// Assessor produces one remote assessment per call and never fails
type Assessor interface {
	RequestAssessment(ctx context.Context, content string) llm.Outcome
	ProviderName() string
	Model() string
}

// Pipeline orchestrates remote assessment, interpretation and fallback
type Pipeline struct {
	assessor Assessor
	cache    *cache.AssessmentCache // nil when caching is off
	renderer *Renderer
	now      func() time.Time
}

// NewPipeline creates a new pipeline with the given configuration
func NewPipeline(cfg *model.Config) *Pipeline {
	client := llm.NewClient(llm.ConfigFromModel(cfg.LLM))
	if !client.Configured() {
		logrus.WithField("provider", cfg.LLM.Provider).Debug("remote model not configured, every analysis will use the fallback")
	}

	return NewPipelineWithAssessor(client, cache.FromConfig(cfg.Cache))
}

// NewPipelineWithAssessor builds a pipeline around any Assessor
func NewPipelineWithAssessor(assessor Assessor, c *cache.AssessmentCache) *Pipeline {
	return &Pipeline{
		assessor: assessor,
		cache:    c,
		renderer: NewRenderer(),
		now:      time.Now,
	}
}

// Renderer returns the pipeline's output renderer
func (p *Pipeline) Renderer() *Renderer {
	return p.renderer
}

// Analyze runs one analysis. It always returns a complete result: any
// remote failure switches to the local heuristic.
// The request is expected to be validated by the caller.
func (p *Pipeline) Analyze(ctx context.Context, req model.AnalysisRequest) model.AnalysisResult {
	id := uuid.NewString()
	log := logrus.WithFields(logrus.Fields{
		"request_id": id,
		"kind":       req.Kind,
	})

	outcome := p.assess(ctx, req.Content, log)

	result := model.AnalysisResult{
		ID:             id,
		SyntheticStats: true,
	}

	var attr score.Attribution
	if outcome.OK() {
		result.Confidence = score.ExtractScore(outcome.Narrative)
		result.Narrative = score.RemoteNarrative(outcome.Narrative, outcome.Provider, outcome.Model)
		result.UsedRemoteModel = true
		result.Source = outcome.Source()
		attr = score.Attribution{Source: outcome.Source(), Remote: true}

		log.WithFields(logrus.Fields{
			"source":     result.Source,
			"confidence": result.Confidence,
		}).Debug("remote assessment interpreted")
	} else {
		est := score.EstimateWithIndicators(req.Content)
		result.Confidence = est.Score
		result.Narrative = score.FallbackNarrative(est.Score)
		result.Source = HeuristicSource
		result.FallbackReason = outcome.Reason
		result.Indicators = est.Indicators
		attr = score.Attribution{Source: "local " + HeuristicSource}

		log.WithFields(logrus.Fields{
			"reason":     outcome.Reason,
			"confidence": est.Score,
			"indicators": len(est.Indicators),
		}).Warn("remote assessment failed, using fallback")
	}

	pres := score.Synthesize(result.Confidence, attr, jitterFor(req.Content, result.Confidence))
	result.Sources = pres.Sources
	result.FactCheck = pres.FactCheck
	result.Issues = pres.Issues
	result.Label = score.Label(result.Confidence)
	result.AnalyzedAt = p.now().UTC()

	return result
}

// assess consults the cache before the remote model; only successful
// outcomes are cached
func (p *Pipeline) assess(ctx context.Context, content string, log *logrus.Entry) llm.Outcome {
	provider, modelName := p.assessor.ProviderName(), p.assessor.Model()

	if hit, ok := p.cache.Lookup(provider, modelName, content); ok {
		log.WithField("stored_at", hit.StoredAt).Debug("assessment cache hit")
		return llm.Outcome{Narrative: hit.Narrative, Provider: hit.Provider, Model: hit.Model}
	}

	outcome := p.assessor.RequestAssessment(ctx, content)
	if outcome.OK() && p.cache != nil {
		err := p.cache.Store(provider, modelName, content, cache.Assessment{
			Provider:  outcome.Provider,
			Model:     outcome.Model,
			Narrative: outcome.Narrative,
		})
		if err != nil {
			log.WithError(err).Debug("assessment cache write failed")
		}
	}
	return outcome
}

// jitterFor seeds stats jitter from the content and score so repeated
// analyses of the same input show the same counts
func jitterFor(content string, confidence int) score.Jitter {
	h := fnv.New64a()
	_, _ = h.Write([]byte(content))
	return rand.New(rand.NewPCG(h.Sum64(), uint64(confidence)))
}
