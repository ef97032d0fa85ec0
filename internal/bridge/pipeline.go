package bridge

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/bridgehub/bridge/internal/cache"
	"github.com/bridgehub/bridge/internal/intent"
	"github.com/bridgehub/bridge/internal/llm"
	"github.com/bridgehub/bridge/internal/metrics"
	"github.com/bridgehub/bridge/internal/prompt"
	"github.com/bridgehub/bridge/internal/quality"
	"github.com/bridgehub/bridge/pkg/model"
)

// Pipeline answers questions. It is safe for concurrent use.
type Pipeline struct {
	intents    IntentClassifier
	calculator Calculator
	cache      Cache
	analyzer   InformativenessAnalyzer
	router     ModelRouter
	evaluator  *quality.Evaluator
	history    HistorySubmitter
	opts       Options
	now        func() time.Time
}

// New creates a pipeline. Missing intent, calculator and analyzer
// collaborators get their default implementations.
func New(deps Deps, opts Options) (*Pipeline, error) {
	if deps.Router == nil {
		return nil, errors.New("bridge pipeline requires a model router")
	}
	if deps.Intents == nil {
		deps.Intents = intent.NewClassifier()
	}
	if deps.Calculator == nil {
		deps.Calculator = intent.NewCalculator("", 0)
	}
	if deps.Analyzer == nil {
		deps.Analyzer = prompt.NewAnalyzer()
	}

	return &Pipeline{
		intents:    deps.Intents,
		calculator: deps.Calculator,
		cache:      deps.Cache,
		analyzer:   deps.Analyzer,
		router:     deps.Router,
		evaluator:  quality.NewEvaluator(opts.QualityThreshold),
		history:    deps.History,
		opts:       opts,
		now:        time.Now,
	}, nil
}

// request is the per-call state threaded through the stages
type request struct {
	model.QueryRequest
	trace   []string
	outcome string
}

func (r *request) step(format string, args ...any) {
	r.trace = append(r.trace, fmt.Sprintf(format, args...))
}

// Process runs the request to completion. It never fails: every terminal
// state, including panics and timeouts, produces an envelope.
func (p *Pipeline) Process(ctx context.Context, q model.QueryRequest) (env model.ResponseEnvelope) {
	start := p.now()
	req := &request{QueryRequest: withDefaults(q)}

	if p.opts.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.opts.RequestTimeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Interface("panic", r).
				Str("question_id", req.QuestionID).
				Msg("pipeline panicked")
			req.outcome = metrics.OutcomePanic
			req.step("Unexpected internal error; request aborted.")
			env = p.errorEnvelope(req, ErrorText)
		}

		elapsed := time.Since(start)
		metrics.Requests.WithLabelValues(req.outcome).Inc()
		metrics.RequestDuration.WithLabelValues(req.outcome).Observe(elapsed.Seconds())
		log.Info().
			Str("question_id", req.QuestionID).
			Str("outcome", req.outcome).
			Str("model", env.Metadata.ModelUsed).
			Bool("from_cache", env.Metadata.FromCache).
			Dur("duration", elapsed).
			Msg("request processed")
	}()

	if env, done := p.intentCheck(ctx, req); done {
		return env
	}
	if env, done := p.cacheCheck(ctx, req); done {
		return env
	}
	if env, done := p.informativenessCheck(req); done {
		return env
	}
	return p.generate(ctx, req)
}

func withDefaults(q model.QueryRequest) model.QueryRequest {
	if q.Vibe == "" {
		q.Vibe = model.VibeDaily
	}
	if q.AnswerLength == "" {
		q.AnswerLength = model.LengthMedium
	}
	return q
}

// intentCheck answers conversational and arithmetic prompts directly
func (p *Pipeline) intentCheck(ctx context.Context, req *request) (model.ResponseEnvelope, bool) {
	in := p.intents.Classify(req.Prompt)
	if !in.ShortCircuit() {
		return model.ResponseEnvelope{}, false
	}

	if in.Kind == intent.KindArithmetic {
		req.outcome = metrics.OutcomeArithmetic
		result, err := p.calculator.Calculate(ctx, in.Expression)
		if err != nil {
			req.step("Arithmetic expression %q could not be evaluated: %v.", in.Expression, err)
			env := p.envelope(req, mathFailurePrefix+err.Error(), model.SourceMathEvaluator, model.Float(0))
			env.Success = false
			env.Metadata.Intent = string(in.Kind)
			return env, true
		}
		req.step("Arithmetic expression %q evaluated directly.", in.Expression)
		env := p.envelope(req, in.Expression+" = "+result, model.SourceMathEvaluator, model.Float(1))
		env.Metadata.Intent = string(in.Kind)
		return env, true
	}

	req.outcome = metrics.OutcomeCanned
	req.step("Simple intent %q detected; responded directly without a model.", in.Kind)
	env := p.envelope(req, intent.Reply(in), model.SourceBridge, model.Float(1))
	env.Metadata.Intent = string(in.Kind)
	return env, true
}

// cacheCheck serves a cached answer from any tier
func (p *Pipeline) cacheCheck(ctx context.Context, req *request) (model.ResponseEnvelope, bool) {
	if p.cache == nil {
		req.step("Cache disabled; proceeding to the model.")
		return model.ResponseEnvelope{}, false
	}

	res := p.cache.Search(ctx, req.Prompt, req.Vibe, req.AnswerLength)
	metrics.CacheLookups.WithLabelValues(string(res.MatchType)).Inc()
	if !res.Hit() {
		req.step("No cached answer for vibe %q and length %q; proceeding to the model.", req.Vibe, req.AnswerLength)
		return model.ResponseEnvelope{}, false
	}

	req.outcome = metrics.OutcomeCacheHit
	req.step("Answer served from cache (match %s, similarity %.2f).", res.MatchType, res.Similarity)

	meta := res.Entry.Metadata
	meta.FromCache = true
	// nothing was spent or escalated to serve this request
	meta.TokenUsage = model.TokenUsage{}
	meta.Escalated = false
	meta.CacheMatchType = res.MatchType
	meta.CacheSimilarity = res.Similarity
	meta.IsGuest = req.IsGuest()
	meta.ReasoningTrace = slices.Clone(req.trace)

	return model.ResponseEnvelope{
		Text:       res.Entry.Response,
		Success:    true,
		QuestionID: req.QuestionID,
		SenderID:   req.SenderID,
		Vibe:       req.Vibe,
		Metadata:   meta,
	}, true
}

// informativenessCheck asks for clarification when the prompt is too thin
func (p *Pipeline) informativenessCheck(req *request) (model.ResponseEnvelope, bool) {
	if !p.opts.CheckInformativeness {
		return model.ResponseEnvelope{}, false
	}

	score, followUps := p.analyzer.Analyze(req.Prompt, req.Vibe)
	if score >= p.opts.ClarifyThreshold || len(followUps) == 0 {
		return model.ResponseEnvelope{}, false
	}

	req.outcome = metrics.OutcomeClarify
	req.step("Prompt informativeness %.2f is below %.2f; asked for clarification.", score, p.opts.ClarifyThreshold)
	env := p.envelope(req, ClarifyText, model.SourceBridge, model.Float(1))
	env.FollowUpQuestions = followUps
	env.NeedsMoreInfo = true
	return env, true
}

// generate calls the model, escalates at most once, and finalizes
func (p *Pipeline) generate(ctx context.Context, req *request) model.ResponseEnvelope {
	class := prompt.Classify(req.Prompt, req.Vibe, req.ResponsePreference)
	req.step("Classified response type as %q (%s).", class.Complexity, class.Reason)

	enhanced := prompt.Enhance(req.Prompt, req.Vibe, class.Complexity, prompt.Options{
		ExtraContext:   req.AdditionalInfo,
		WantConfidence: req.WantConfidence || p.opts.ShowConfidence,
		Length:         req.AnswerLength,
	})

	tier := p.router.TierFor(class.Complexity)
	res := p.observe(p.router.Route(ctx, enhanced, class.Complexity))
	req.step("Called %s tier (%s).", res.Tier, res.ModelLabel)
	if res.Cancelled {
		return p.timeoutEnvelope(req)
	}
	if !res.Success {
		req.outcome = metrics.OutcomeFailed
		req.step("Model call failed; no escalation attempted.")
		env := p.errorEnvelope(req, res.Answer)
		env.Metadata.ModelUsed = res.ModelLabel
		env.Metadata.Complexity = string(class.Complexity)
		return env
	}

	usage := res.Usage
	score := p.evaluate(res, tier)
	escalated, cacheable := false, true

	if score.NeedsUpgrade {
		advanced := p.router.Advanced()
		req.step("Answer from %s scored %.2f, below %.2f; escalating to %s.", res.ModelLabel, score.Overall, p.evaluator.Threshold(), advanced.Label)

		upgraded := p.observe(p.router.CallTier(ctx, enhanced, advanced))
		switch {
		case upgraded.Cancelled:
			metrics.Escalations.WithLabelValues("cancelled").Inc()
			return p.timeoutEnvelope(req)
		case !upgraded.Success:
			metrics.Escalations.WithLabelValues("failed").Inc()
			req.step("Escalation failed; keeping the %s answer.", res.ModelLabel)
			cacheable = false
		default:
			metrics.Escalations.WithLabelValues("ok").Inc()
			usage = usage.Add(upgraded.Usage)
			res = upgraded
			score = p.evaluate(res, advanced)
			escalated = true
			req.step("%s answered; quality %.2f.", res.ModelLabel, score.Overall)
		}
	}

	req.outcome = metrics.OutcomeModel
	env := p.envelope(req, res.Answer, res.ModelLabel, res.Confidence)
	env.Metadata.Intent = string(intent.KindNone)
	env.Metadata.Complexity = string(class.Complexity)
	env.Metadata.Quality = model.Float(score.Overall)
	env.Metadata.Escalated = escalated
	env.Metadata.TokenUsage = usage

	p.finalize(ctx, req, env, cacheable)
	return env
}

// observe records the metrics of one tier call
func (p *Pipeline) observe(res llm.Result) llm.Result {
	result := "ok"
	switch {
	case res.Cancelled:
		result = "cancelled"
	case !res.Success:
		result = "failed"
	}
	metrics.TierCalls.WithLabelValues(string(res.Tier), result).Inc()
	if res.Usage.Total > 0 {
		metrics.TokensUsed.WithLabelValues(string(res.Tier)).Add(float64(res.Usage.Total))
	}
	return res
}

func (p *Pipeline) evaluate(res llm.Result, tier llm.TierConfig) quality.Score {
	score := p.evaluator.Evaluate(res.Answer, res.Confidence, tier)
	metrics.QualityScore.Observe(score.Overall)
	log.Debug().
		Str("tier", string(tier.Name)).
		Float64("overall", score.Overall).
		Bool("needs_upgrade", score.NeedsUpgrade).
		Msg("answer evaluated")
	return score
}

// finalize caches the answer and hands it to the history recorder.
// Records of uncacheable answers are marked so remote lookups skip them.
func (p *Pipeline) finalize(ctx context.Context, req *request, env model.ResponseEnvelope, cacheable bool) {
	now := p.now().UTC()

	var (
		vec       []float32
		expiresAt *time.Time
	)
	if p.cache != nil && cacheable {
		entry := &cache.Entry{
			Key:      cache.NewKey(req.Prompt, req.Vibe, req.AnswerLength),
			Prompt:   req.Prompt,
			Response: env.Text,
			Metadata: env.Metadata,
		}
		if p.cache.Store(ctx, entry) {
			vec = entry.Embedding
			expiresAt = entry.ExpiresAt
		}
	}
	if expiresAt == nil && p.opts.RecordTTL > 0 {
		exp := now.Add(p.opts.RecordTTL)
		expiresAt = &exp
	}

	if p.history == nil {
		return
	}
	rec := &model.QARecord{
		UserID:           req.SenderID,
		QuestionID:       req.QuestionID,
		Question:         req.Prompt,
		NormalizedPrompt: model.NormalizePrompt(req.Prompt),
		Vibe:             req.Vibe,
		AnswerLength:     req.AnswerLength,
		Answer:           env.Text,
		Model:            env.Metadata.ModelUsed,
		Confidence:       env.Metadata.Confidence,
		Usage:            env.Metadata.TokenUsage,
		Embedding:        vec,
		Trace:            env.Metadata.ReasoningTrace,
		IsGuest:          env.Metadata.IsGuest,
		NoCache:          !cacheable,
		CreatedAt:        now,
		ExpiresAt:        expiresAt,
	}
	p.history.Submit(rec)
}

// envelope builds a successful envelope and freezes the trace
func (p *Pipeline) envelope(req *request, text, source string, confidence *float64) model.ResponseEnvelope {
	return model.ResponseEnvelope{
		Text:       text,
		Success:    true,
		QuestionID: req.QuestionID,
		SenderID:   req.SenderID,
		Vibe:       req.Vibe,
		Metadata: model.ResponseMetadata{
			ModelUsed:      source,
			Confidence:     confidence,
			CacheMatchType: model.MatchNone,
			IsGuest:        req.IsGuest(),
			ReasoningTrace: slices.Clone(req.trace),
		},
	}
}

func (p *Pipeline) errorEnvelope(req *request, text string) model.ResponseEnvelope {
	env := p.envelope(req, text, model.SourceUnknown, model.Float(0))
	env.Success = false
	return env
}

func (p *Pipeline) timeoutEnvelope(req *request) model.ResponseEnvelope {
	req.outcome = metrics.OutcomeTimeout
	req.step("Request cancelled or timed out while waiting for the model.")
	return p.errorEnvelope(req, TimeoutText)
}
