package testserver_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/atlas/internal/ai"
	"github.com/rpggio/atlas/internal/testserver"
	"github.com/stretchr/testify/require"
)

const (
	diagnoseReply  = `{"summary":"Churn is driven by onboarding gaps.","root_causes":[{"cause":"Slow onboarding","impact":"high"}]}`
	scenariosReply = `{"scenarios":[{"name":"Guided onboarding","probability":0.7}],"recommended":"Guided onboarding"}`
	planReply      = `{"phases":[{"name":"Design","duration_weeks":2},{"name":"Launch","duration_weeks":3}]}`
	auditReply     = `{"summary":"One control gap.","risk_score":40,"findings":[{"title":"Missing approvals","severity":"high","category":"controls","confidence":0.8}],"recommendations":["Enforce approvals"]}`
)

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
	ID      any             `json:"id,omitempty"`
}

type rpcError struct {
	Code    int            `json:"code"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
}

func rpcCallAs(t *testing.T, ts *testserver.TestServer, token, method string, params any) rpcResponse {
	t.Helper()

	payload := map[string]any{
		"jsonrpc": "2.0",
		"method":  method,
		"id":      1,
	}
	if params != nil {
		payload["params"] = params
	}
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, ts.Server.URL+"/rpc", bytes.NewBuffer(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-Atlas-User", "analyst@example.com")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		t.Fatalf("Expected status 200, got %d. Body: %s", resp.StatusCode, string(bodyBytes))
	}

	var result rpcResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	return result
}

// call invokes a method as the server's tenant and requires success.
func call(t *testing.T, ts *testserver.TestServer, method string, params any) json.RawMessage {
	t.Helper()
	resp := rpcCallAs(t, ts, ts.Token, method, params)
	require.Nil(t, resp.Error, "%s failed: %+v", method, resp.Error)
	return resp.Result
}

type sessionView struct {
	Session struct {
		ID          string                     `json:"id"`
		Status      string                     `json:"status"`
		CurrentStep int                        `json:"current_step"`
		CreatedBy   string                     `json:"created_by"`
		Version     int64                      `json:"version"`
		Artifacts   map[string]json.RawMessage `json:"artifacts"`
	} `json:"session"`
	NextStatus  string `json:"next_status"`
	CanContinue bool   `json:"can_continue"`
	Blocker     string `json:"blocker"`
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func TestFunctional_Authentication(t *testing.T) {
	ts := testserver.New(t, "token", "tenant1")

	req, err := http.NewRequest(http.MethodPost, ts.Server.URL+"/rpc", bytes.NewBufferString(`{"jsonrpc":"2.0","method":"list_sessions","id":1}`))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, err = http.NewRequest(http.MethodPost, ts.Server.URL+"/rpc", bytes.NewBufferString(`{"jsonrpc":"2.0","method":"list_sessions","id":1}`))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer not-a-key")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	health, err := http.Get(ts.Server.URL + "/health")
	require.NoError(t, err)
	health.Body.Close()
	require.Equal(t, http.StatusOK, health.StatusCode)
}

func TestFunctional_ConsultingWorkflow(t *testing.T) {
	ts := testserver.New(t, "token", "tenant1")
	ts.Gateway.Reply(ai.KindDiagnose, diagnoseReply)
	ts.Gateway.Reply(ai.KindScenarios, scenariosReply)
	ts.Gateway.Reply(ai.KindExecutionPlan, planReply)

	call(t, ts, "onboard_company", map[string]any{"name": "Brightline SaaS", "industry": "software", "size": "small"})
	dup := rpcCallAs(t, ts, ts.Token, "onboard_company", map[string]any{"name": "Again"})
	require.NotNil(t, dup.Error)
	require.Equal(t, "ALREADY_ONBOARDED", dup.Error.Data["code"])

	created := decode[sessionView](t, call(t, ts, "create_session", map[string]any{
		"module":              "consulting",
		"title":               "Churn",
		"problem_description": "Customer churn doubled after the pricing change.",
	}))
	require.Equal(t, "intake", created.Session.Status)
	require.Equal(t, "analyst@example.com", created.Session.CreatedBy)
	require.False(t, created.CanContinue)
	require.Contains(t, created.Blocker, "domain")
	id := created.Session.ID

	notReady := rpcCallAs(t, ts, ts.Token, "consulting_diagnose", map[string]any{"session_id": id})
	require.NotNil(t, notReady.Error)
	require.Equal(t, "STEP_NOT_READY", notReady.Error.Data["code"])

	call(t, ts, "update_session_inputs", map[string]any{"session_id": id, "domains": []string{"customer_success"}})

	diagnosed := decode[sessionView](t, call(t, ts, "consulting_diagnose", map[string]any{"session_id": id}))
	require.Equal(t, "diagnosing", diagnosed.Session.Status)
	require.Contains(t, ts.Gateway.Prompts()[0].User, "Brightline SaaS")

	call(t, ts, "consulting_scenarios", map[string]any{"session_id": id})
	planned := decode[sessionView](t, call(t, ts, "consulting_plan", map[string]any{"session_id": id, "scenario": "Guided onboarding"}))
	require.Equal(t, "planning", planned.Session.Status)
	require.Contains(t, planned.Session.Artifacts, "execution_plan")

	milestones := decode[[]struct {
		ID     string `json:"id"`
		Title  string `json:"title"`
		Status string `json:"status"`
	}](t, call(t, ts, "list_milestones", map[string]any{"session_id": id}))
	require.Len(t, milestones, 2)
	require.Equal(t, "Design", milestones[0].Title)

	cycled := decode[struct {
		Status string `json:"status"`
	}](t, call(t, ts, "cycle_milestone", map[string]any{"id": milestones[0].ID}))
	require.Equal(t, "in_progress", cycled.Status)

	done := decode[sessionView](t, call(t, ts, "complete_session", map[string]any{"session_id": id}))
	require.Equal(t, "complete", done.Session.Status)
	require.Equal(t, 4, done.Session.CurrentStep)

	activity := decode[[]struct {
		Type string `json:"type"`
	}](t, call(t, ts, "recent_activity", map[string]any{"session_id": id, "type": "milestone_cycled"}))
	require.Len(t, activity, 1)
}

func TestFunctional_AnalysisFailureIsRetryable(t *testing.T) {
	ts := testserver.New(t, "token", "tenant1")
	ts.Gateway.Fail(ai.KindTaxLegal, &ai.GatewayError{Status: 429, Err: ai.ErrRateLimited})

	created := decode[sessionView](t, call(t, ts, "create_session", map[string]any{"module": "tax_legal"}))
	args := map[string]any{
		"session_id":    created.Session.ID,
		"jurisdictions": []string{"DE", "FR"},
		"question":      "Do we need a permanent establishment in France?",
	}

	failed := rpcCallAs(t, ts, ts.Token, "tax_legal_analyze", args)
	require.NotNil(t, failed.Error)
	require.Equal(t, -32000, failed.Error.Code)
	require.Equal(t, "RATE_LIMITED", failed.Error.Data["code"])

	current := decode[sessionView](t, call(t, ts, "get_session", map[string]any{"session_id": created.Session.ID}))
	require.Equal(t, "intake", current.Session.Status)

	ts.Gateway.Reply(ai.KindTaxLegal, `{"summary":"A PE is likely.","obligations":[{"jurisdiction":"FR","title":"Corporate tax registration","description":"Register for corporate tax"}],"risks":["Double taxation"]}`)
	done := decode[sessionView](t, call(t, ts, "tax_legal_analyze", args))
	require.Equal(t, "review", done.Session.Status)
}

func TestFunctional_AuditReportDownload(t *testing.T) {
	ts := testserver.New(t, "token", "tenant1")
	ts.Gateway.Reply(ai.KindAuditAnalysis, auditReply)

	var csv strings.Builder
	csv.WriteString("date,account,amount\n")
	for i := 0; i < 30; i++ {
		fmt.Fprintf(&csv, "2026-01-%02d,4000,%d\n", i%28+1, 100+i)
	}
	uploaded := decode[struct {
		Dataset struct {
			ID string `json:"id"`
		} `json:"dataset"`
		RowCount int `json:"row_count"`
	}](t, call(t, ts, "upload_dataset", map[string]any{
		"file_name": "ledger.csv",
		"type":      "financial",
		"content":   base64.StdEncoding.EncodeToString([]byte(csv.String())),
	}))
	require.Equal(t, 30, uploaded.RowCount)

	created := decode[sessionView](t, call(t, ts, "create_session", map[string]any{"module": "audit", "audit_type": "compliance", "title": "Q1 controls"}))
	id := created.Session.ID

	early, err := http.NewRequest(http.MethodGet, ts.Server.URL+"/sessions/"+id+"/report.pdf", nil)
	require.NoError(t, err)
	early.Header.Set("Authorization", "Bearer "+ts.Token)
	resp, err := http.DefaultClient.Do(early)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	call(t, ts, "audit_configure", map[string]any{
		"session_id":  id,
		"audit_type":  "compliance",
		"standard":    "sox",
		"dataset_ids": []string{uploaded.Dataset.ID},
	})
	reviewed := decode[sessionView](t, call(t, ts, "audit_analyze", map[string]any{"session_id": id}))
	require.Equal(t, "review", reviewed.Session.Status)

	findings := decode[[]struct {
		ID       string `json:"id"`
		Severity string `json:"severity"`
	}](t, call(t, ts, "list_findings", map[string]any{"session_id": id}))
	require.Len(t, findings, 1)
	call(t, ts, "acknowledge_finding", map[string]any{"session_id": id, "finding_id": findings[0].ID})

	for _, format := range []string{"pdf", "xlsx"} {
		req, err := http.NewRequest(http.MethodGet, ts.Server.URL+"/sessions/"+id+"/report."+format, nil)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+ts.Token)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode, format)
		require.NotEmpty(t, body)
		if format == "pdf" {
			require.True(t, bytes.HasPrefix(body, []byte("%PDF-")))
			require.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
		} else {
			require.True(t, bytes.HasPrefix(body, []byte("PK")))
		}
	}

	exported := decode[struct {
		ContentType string `json:"content_type"`
		Content     string `json:"content"`
	}](t, call(t, ts, "export_report", map[string]any{"session_id": id, "format": "pdf"}))
	require.Equal(t, "application/pdf", exported.ContentType)
	require.NotEmpty(t, exported.Content)
}

func TestFunctional_TenantIsolation(t *testing.T) {
	ts := testserver.New(t, "token", "tenant1")
	require.NoError(t, ts.AddAPIKey("token2", "tenant2"))

	created := decode[sessionView](t, call(t, ts, "create_session", map[string]any{"module": "branding"}))

	other := rpcCallAs(t, ts, "token2", "get_session", map[string]any{"session_id": created.Session.ID})
	require.NotNil(t, other.Error)
	require.Equal(t, "SESSION_NOT_FOUND", other.Error.Data["code"])

	list := rpcCallAs(t, ts, "token2", "list_sessions", nil)
	require.Nil(t, list.Error)
	require.Empty(t, decode[[]map[string]any](t, list.Result))
}

func TestFunctional_UnknownMethod(t *testing.T) {
	ts := testserver.New(t, "token", "tenant1")

	resp := rpcCallAs(t, ts, ts.Token, "launch_rockets", nil)
	require.NotNil(t, resp.Error)
	require.Equal(t, -32601, resp.Error.Code)
}

type bearerTransport struct {
	token string
	base  http.RoundTripper
}

func (b bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("Authorization", "Bearer "+b.token)
	return b.base.RoundTrip(req)
}

func TestFunctional_MCPOverStreamableHTTP(t *testing.T) {
	ts := testserver.New(t, "token", "tenant1")
	ts.Gateway.Reply(ai.KindBrandingStrategy, "I could not produce JSON this time.")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test-client", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, &sdkmcp.StreamableClientTransport{
		Endpoint:   ts.Server.URL + "/mcp",
		HTTPClient: &http.Client{Transport: bearerTransport{token: ts.Token, base: http.DefaultTransport}},
	}, nil)
	require.NoError(t, err)
	defer session.Close()

	tools, err := session.ListTools(ctx, nil)
	require.NoError(t, err)
	require.Greater(t, len(tools.Tools), 25)

	text := func(result *sdkmcp.CallToolResult) string {
		require.NotEmpty(t, result.Content)
		content, ok := result.Content[0].(*sdkmcp.TextContent)
		require.True(t, ok)
		return content.Text
	}

	created, err := session.CallTool(ctx, &sdkmcp.CallToolParams{
		Name:      "create_session",
		Arguments: map[string]any{"module": "branding"},
	})
	require.NoError(t, err)
	require.False(t, created.IsError, text(created))
	view := decode[sessionView](t, json.RawMessage(text(created)))

	// The branding step falls back to a usable identity when the model
	// answers with prose.
	generated, err := session.CallTool(ctx, &sdkmcp.CallToolParams{
		Name: "branding_generate",
		Arguments: map[string]any{
			"session_id":    view.Session.ID,
			"business_name": "Kestrel Coffee",
		},
	})
	require.NoError(t, err)
	require.False(t, generated.IsError, text(generated))
	branded := decode[sessionView](t, json.RawMessage(text(generated)))
	require.Equal(t, "review", branded.Session.Status)
	require.Contains(t, string(branded.Session.Artifacts["branding"]), "Kestrel Coffee")

	missing, err := session.CallTool(ctx, &sdkmcp.CallToolParams{
		Name:      "get_session",
		Arguments: map[string]any{"session_id": "nope"},
	})
	require.NoError(t, err)
	require.True(t, missing.IsError)
	require.Contains(t, text(missing), "SESSION_NOT_FOUND")
}

func TestFunctional_MCPRequiresToken(t *testing.T) {
	ts := testserver.New(t, "token", "tenant1")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test-client", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, &sdkmcp.StreamableClientTransport{Endpoint: ts.Server.URL + "/mcp"}, nil)
	require.NoError(t, err)
	defer session.Close()

	_, err = session.CallTool(ctx, &sdkmcp.CallToolParams{Name: "list_sessions"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "unauthorized")
}
