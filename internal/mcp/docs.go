package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `atlas runs AI-assisted advisory workflows for one company per tenant.

Core concepts:
- Company: the tenant's business profile. Analyses use it as context. Onboard it first.
- Dataset: an uploaded CSV or XLSX file. Only the first 100 rows are stored.
- Session: one run of a module workflow (consulting, audit, branding, tax_legal). It has a status, a step index and JSON artifacts.
- Step: each module walks a fixed status sequence. A step's "continue" action needs its form fields (see get_session can_continue and blocker).

Module sequences:
- consulting: intake -> diagnosing -> simulating -> planning -> complete
- audit: setup -> upload -> analyzing -> review -> complete
- branding: intake -> generating -> review -> complete
- tax_legal: intake -> analyzing -> review -> complete

Typical flow:
1) onboard_company, then upload_dataset for each file.
2) create_session with the module and its intake fields.
3) Run the module tools in order (consulting_diagnose, consulting_scenarios, consulting_plan / audit_configure, audit_analyze / branding_generate / tax_legal_analyze).
4) Review artifacts with get_session, list_findings or list_milestones, then complete_session.

Errors come back as tool output with a code and a recovery_hint. A failed AI step leaves the session at its previous step; retry after RATE_LIMITED or AI_PARSE_FAILED.

Docs:
- atlas://docs/index
- atlas://docs/modules
- atlas://docs/errors
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "atlas://docs/index",
		Name:        "docs_index",
		Title:       "atlas docs index",
		Description: "Entry point: what each doc covers.",
		Content: `# atlas docs

- atlas://docs/modules: the step sequence of each module, what each step needs and what it produces.
- atlas://docs/errors: error codes and how to recover.

Limits:
- At most 10 datasets and 50 sample rows per dataset are sent to an analysis.
- Free text fields are trimmed and capped before they reach the model.
- Reports (export_report) exist only for audit sessions in review or complete.
`,
	},
	{
		URI:         "atlas://docs/modules",
		Name:        "docs_modules",
		Title:       "Module workflows",
		Description: "Status sequences, step requirements and artifacts per module.",
		Content: `# Modules

## consulting
| status | needs to continue | produces |
|---|---|---|
| intake | problem_description of 20+ characters, 1+ domain | diagnosis |
| diagnosing | diagnosis | scenarios |
| simulating | scenarios | execution_plan, milestones |
| planning | | |

consulting_plan takes an optional scenario name. Milestones get due dates from the plan's phase durations.

## audit
| status | needs to continue | produces |
|---|---|---|
| setup | audit_type, standard | |
| upload | 1+ dataset | findings, recommendations |
| review | | report |

Findings are listed by severity: high, medium, low, info.

## branding
intake needs business_name. branding_generate stores the form as brand_input and the result as branding.
When the model output cannot be parsed, a fallback identity based on the business name is returned.

## tax_legal
intake needs 1+ jurisdiction and a question of 20+ characters. The result is stored as tax_legal.

## Moving by hand
advance_session sets any status and step and merges artifacts. Without expected_version the last write wins.
back_session returns to the previous step and keeps artifacts.
`,
	},
	{
		URI:         "atlas://docs/errors",
		Name:        "docs_errors",
		Title:       "Error codes",
		Description: "Error codes returned by tools and how to recover.",
		Content: `# Errors

| code | meaning | recovery |
|---|---|---|
| RATE_LIMITED | the AI gateway answered 429 | wait and retry |
| QUOTA_EXCEEDED | the AI gateway answered 402 | top up credits |
| ANALYSIS_FAILED | any other gateway failure | retry later |
| AI_PARSE_FAILED | the model did not return JSON; details.raw holds its text | retry |
| SCHEMA_MISMATCH | the model returned JSON of the wrong shape | retry |
| VALIDATION_FAILED | bad arguments | fix the arguments |
| STEP_NOT_READY | the step's form is incomplete | fill the fields named in the message |
| WRONG_STEP | the tool does not apply to the session's module or status | check get_session |
| CONFLICT | expected_version did not match | reload and retry |
| SESSION_NOT_FOUND, NOT_FOUND | unknown id for this tenant | check ids |
| ALREADY_ONBOARDED | the tenant already has a company | use update_company |
| DATASET_PARSE_FAILED | the file is empty, malformed or not csv/xlsx | fix the file |
| REPORT_UNAVAILABLE | not an audit, or not analyzed yet | run audit_analyze |
| UNAUTHENTICATED | missing or unknown bearer token | send a valid token |
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
