package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/Caiolinooo/PontoFlow-sub001/internal/routing"
	"github.com/google/cel-go/cel"
)

// The rules endpoint dry-runs a candidate access policy against a caller
// supplied context without touching any store. Operators use it to vet a
// rule set before it is rolled out.

const (
	ruleDecisionAllow = "allow"
	ruleDecisionDeny  = "deny"
)

const reasonNoEligibleRule = "no_eligible_rule"

type ruleCandidate struct {
	RuleID          string `json:"rule_id"`
	Priority        int    `json:"priority"`
	EligibilityExpr string `json:"eligibility_expr"`
	DecisionExpr    string `json:"decision_expr"`
	ReasonCode      string `json:"reason_code"`
}

type rulesEvaluateRequest struct {
	Rules   []ruleCandidate   `json:"rules"`
	Context map[string]string `json:"context"`
}

type rulesEvaluateResponse struct {
	TraceID             string            `json:"trace_id"`
	Decision            string            `json:"decision"`
	ReasonCode          string            `json:"reason_code"`
	SelectedRuleID      string            `json:"selected_rule_id,omitempty"`
	SelectedRule        *ruleCandidate    `json:"selected_rule,omitempty"`
	BriefExplain        string            `json:"brief_explain"`
	Context             map[string]string `json:"context"`
	CandidatesEvaluated int               `json:"candidates_evaluated"`
	EligibilityMatched  int               `json:"eligibility_matched"`
}

var newRulesCELEnv = func() (*cel.Env, error) {
	return cel.NewEnv(cel.Variable("ctx", cel.MapType(cel.StringType, cel.StringType)))
}

var newRulesCELProgram = func(env *cel.Env, ast *cel.Ast) (cel.Program, error) {
	return env.Program(ast)
}

var ruleEligibilityProgramCache sync.Map
var ruleDecisionProgramCache sync.Map

// POST /internal/access/rules:evaluate
func (h *handler) evaluateRules(w http.ResponseWriter, r *http.Request) {
	rc := h.classifier.Classify(r.URL.Path)
	p, tenant, ok := h.requestScope(w, r)
	if !ok {
		return
	}
	if !p.Role.IsAdmin() {
		routing.WriteError(w, r, rc, http.StatusForbidden, "access_denied", "only admins may evaluate rules")
		return
	}

	var req rulesEvaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		routing.WriteError(w, r, rc, http.StatusBadRequest, "invalid_body", "invalid JSON body")
		return
	}
	if len(req.Rules) == 0 {
		routing.WriteError(w, r, rc, http.StatusBadRequest, "invalid_request", "rules required")
		return
	}
	for _, candidate := range req.Rules {
		if strings.TrimSpace(candidate.RuleID) == "" {
			routing.WriteError(w, r, rc, http.StatusBadRequest, "invalid_request", "every rule needs a rule_id")
			return
		}
	}

	ctxMap := make(map[string]string, len(req.Context)+3)
	for k, v := range req.Context {
		ctxMap[strings.ToLower(strings.TrimSpace(k))] = v
	}
	ctxMap["tenant_id"] = tenant.ID
	ctxMap["actor_id"] = p.ID
	ctxMap["actor_role"] = strings.ToLower(string(p.Role))

	decision, reasonCode, selected, matched, err := evaluateRuleCandidates(ctxMap, req.Rules)
	if err != nil {
		routing.WriteError(w, r, rc, http.StatusUnprocessableEntity, "invalid_expression", err.Error())
		return
	}

	response := rulesEvaluateResponse{
		TraceID:             routing.TraceIDFromRequest(r),
		Decision:            decision,
		ReasonCode:          reasonCode,
		BriefExplain:        ruleBriefExplain(selected, matched),
		Context:             ctxMap,
		CandidatesEvaluated: len(req.Rules),
		EligibilityMatched:  matched,
	}
	if selected != nil {
		response.SelectedRuleID = selected.RuleID
		response.SelectedRule = selected
	}
	routing.WriteJSON(w, http.StatusOK, response)
}

func evaluateRuleCandidates(ctxMap map[string]string, candidates []ruleCandidate) (string, string, *ruleCandidate, int, error) {
	matched := 0
	var selected *ruleCandidate
	for i := range candidates {
		candidate := candidates[i]
		eligible, err := evalRuleEligibilityExpr(candidate.EligibilityExpr, ctxMap)
		if err != nil {
			return "", "", nil, matched, fmt.Errorf("rule %s: %w", candidate.RuleID, err)
		}
		if !eligible {
			continue
		}
		matched++
		if selected == nil || candidate.Priority > selected.Priority ||
			(candidate.Priority == selected.Priority && candidate.RuleID < selected.RuleID) {
			copyCandidate := candidate
			selected = &copyCandidate
		}
	}
	if selected == nil {
		return ruleDecisionDeny, reasonNoEligibleRule, nil, matched, nil
	}
	decision, err := evalRuleDecisionExpr(selected.DecisionExpr, ctxMap)
	if err != nil {
		return "", "", nil, matched, fmt.Errorf("rule %s: %w", selected.RuleID, err)
	}
	switch decision {
	case ruleDecisionAllow, ruleDecisionDeny:
	default:
		decision = ruleDecisionDeny
	}
	reasonCode := strings.TrimSpace(selected.ReasonCode)
	if reasonCode == "" {
		reasonCode = selected.RuleID
	}
	return decision, reasonCode, selected, matched, nil
}

func evalRuleEligibilityExpr(expr string, ctxMap map[string]string) (bool, error) {
	program, err := loadOrCompileRuleProgram(expr, cel.BoolType, &ruleEligibilityProgramCache)
	if err != nil {
		return false, err
	}
	out, _, err := program.Eval(map[string]any{"ctx": ctxMap})
	if err != nil {
		return false, err
	}
	v := out.Value().(bool)
	return v, nil
}

func evalRuleDecisionExpr(expr string, ctxMap map[string]string) (string, error) {
	program, err := loadOrCompileRuleProgram(expr, cel.StringType, &ruleDecisionProgramCache)
	if err != nil {
		return "", err
	}
	out, _, err := program.Eval(map[string]any{"ctx": ctxMap})
	if err != nil {
		return "", err
	}
	v := out.Value().(string)
	return strings.ToLower(strings.TrimSpace(v)), nil
}

func loadOrCompileRuleProgram(expr string, outputType *cel.Type, cache *sync.Map) (cel.Program, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, errors.New("expression required")
	}
	if cached, ok := cache.Load(expr); ok {
		return cached.(cel.Program), nil
	}
	env, err := newRulesCELEnv()
	if err != nil {
		return nil, err
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, issues.Err()
	}
	if ast.OutputType() != outputType {
		return nil, errors.New("expression output type mismatch")
	}
	program, err := newRulesCELProgram(env, ast)
	if err != nil {
		return nil, err
	}
	cache.Store(expr, program)
	return program, nil
}

func ruleBriefExplain(selected *ruleCandidate, matched int) string {
	if selected == nil {
		return "no eligible rule candidate"
	}
	return fmt.Sprintf("selected %s (priority=%d, matched=%d)", selected.RuleID, selected.Priority, matched)
}
