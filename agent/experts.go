package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/etnz/etfx"
	"github.com/etnz/etfx/docs"
	"github.com/etnz/etfx/renderer"
	"github.com/rs/zerolog"
	"google.golang.org/genai"
)

const model = "gemini-2.5-pro"

func newFacilitator(experts ...*Expert) *Expert {
	return &Expert{
		Name:      "Facilitator",
		ModelName: model,
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{FunctionDeclarations: NewDeclaration(experts)},
			},
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: `
			As a facilitator you are in charge of the conversation and solving the user's request.

			Learn about the expert's skill that you can get from the Tools to ask them questions.
			They are at your service and 100% dedicated to you, they keep context of your previous questions.

			The user is exploring Exchange Traded Funds: comparing them, looking at how much their
			holdings overlap, and sketching a portfolio out of them.

			Devise a plan of questions to ask to each experts and come up with the best response to the user's request.
			Answer in markdown.

			The user will assume that you know about the ETFs they selected, ask the Analyst first.
		`}}},
		},
		Library: NewLibrary(experts),
	}
}

// NewResearcher returns an expert grounded on Google Search.
func NewResearcher(log zerolog.Logger) *Expert {
	return &Expert{
		Name: "Researcher",
		Description: `This is an expert researcher,
		very well aware of the fund issuers, of the companies they hold and of the latest news about them.
		Ask the Researcher whenever you need recent or grounding information.`,
		ModelName: model,
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{GoogleSearch: &genai.GoogleSearch{}},
			},
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: `
			You are an expert in financial research, you can search and find about anything related to
			fund issuers, companies, markets and funds. You leverage Google Search to
			ground your assertions in a solid truth.
			You can get the latest news too, and you know how to relate them to the user's request.
				`}}},
		},
		log: log,
	}
}

// NewAnalyst returns the expert in charge of the ETF service and of the
// user's tools.
func NewAnalyst(ws *etfx.Workspace, svc etfx.Service, log zerolog.Logger) *Expert {
	lib := Analysis(ws, svc)
	return &Expert{
		Name: "Analyst",
		Description: `This is the Analyst. It can search ETFs, compare their holdings, sectors and dividends,
		compute how much their holdings overlap, and read the ETFs and allocations the user selected in etfx.`,
		ModelName: model,
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{FunctionDeclarations: NewDeclaration(lib)},
			},
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: `
				You are an ETF analyst working on the user's etfx workspace.
				You know how to use the Tools to extract relevant information about ETFs and the user's selections.
				You are part of a team of experts, yours is everything about ETF data. They might ask
				you questions with approximate language, figure out what they meant.

				Look at the workspace first when the question is about "my" ETFs or portfolio.
				Read the documentation topics to explain how overlap and weighted values are computed.
			`}}},
		},
		Library: NewLibrary(lib),
		log:     log,
	}
}

// Analysis returns the functions of the Analyst. They never modify the
// workspace.
func Analysis(ws *etfx.Workspace, svc etfx.Service) []*Func {
	return []*Func{
		{
			Decl: &genai.FunctionDeclaration{
				Name:        "SearchETF",
				Description: "SearchETF looks up ETFs by ticker or name.",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"query": {Type: genai.TypeString, Description: "A ticker or part of the fund's name."},
					},
					Required: []string{"query"},
				},
				Response: &genai.Schema{Type: genai.TypeString, Description: "A markdown table of matching ETFs."},
			},
			Func: func(ctx context.Context, args map[string]any) (string, error) {
				query, err := stringArg(args, "query")
				if err != nil {
					return "", err
				}
				results, err := svc.Search(ctx, query, 10)
				if err != nil {
					return "", fmt.Errorf("search failed: %s", etfx.UserMessage(err))
				}
				return renderer.SearchMarkdown(query, results), nil
			},
		},
		{
			Decl: &genai.FunctionDeclaration{
				Name:        "CompareETFs",
				Description: "CompareETFs shows the expense ratio, top holdings, top sectors and recent dividends of ETFs side by side.",
				Parameters:  symbolsSchema("The ETF tickers to compare."),
				Response:    &genai.Schema{Type: genai.TypeString, Description: "A markdown comparison of the ETFs."},
			},
			Func: func(ctx context.Context, args map[string]any) (string, error) {
				etfs, err := fetch(ctx, svc, args)
				if err != nil {
					return "", err
				}
				return renderer.ComparisonMarkdown(etfs), nil
			},
		},
		{
			Decl: &genai.FunctionDeclaration{
				Name: "IntersectETFs",
				Description: `IntersectETFs computes the holdings shared by ETFs, assuming $100 invested in each,
				grouped by the subset of ETFs that hold them.`,
				Parameters: symbolsSchema("The ETF tickers to intersect, at least 2."),
				Response:   &genai.Schema{Type: genai.TypeString, Description: "A markdown report of the shared holdings."},
			},
			Func: func(ctx context.Context, args map[string]any) (string, error) {
				etfs, err := fetch(ctx, svc, args)
				if err != nil {
					return "", err
				}
				return renderer.IntersectionMarkdown(etfs, etfx.Intersect(etfs...)), nil
			},
		},
		{
			Decl: &genai.FunctionDeclaration{
				Name:        "Workspace",
				Description: "Workspace lists the ETFs selected in the comparator and in the intersection analyzer, and the portfolio allocations.",
				Response:    &genai.Schema{Type: genai.TypeString, Description: "A markdown summary of the user's tools."},
			},
			Func: func(ctx context.Context, args map[string]any) (string, error) {
				return workspaceMarkdown(ws), nil
			},
		},
		{
			Decl: &genai.FunctionDeclaration{
				Name:        "Topic",
				Description: "Topic reads a documentation topic of etfx.",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"name": {Type: genai.TypeString, Description: "The topic, one of: " + strings.Join(must(docs.GetAllTopics()), ", ")},
					},
					Required: []string{"name"},
				},
				Response: &genai.Schema{Type: genai.TypeString, Description: "The topic in markdown."},
			},
			Func: func(ctx context.Context, args map[string]any) (string, error) {
				name, err := stringArg(args, "name")
				if err != nil {
					return "", err
				}
				return docs.GetTopic(name)
			},
		},
	}
}

func symbolsSchema(description string) *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"symbols": {
				Type:        genai.TypeArray,
				Items:       &genai.Schema{Type: genai.TypeString},
				Description: description,
			},
		},
		Required: []string{"symbols"},
	}
}

// fetch gets the detail of the ETFs named in args. A detail that cannot be
// fetched is left nil, the reports show it as unavailable.
func fetch(ctx context.Context, svc etfx.Fetcher, args map[string]any) ([]etfx.SelectedETF, error) {
	symbols, err := symbolsArg(args, "symbols")
	if err != nil {
		return nil, err
	}
	etfs := make([]etfx.SelectedETF, 0, len(symbols))
	for _, s := range symbols {
		etf := etfx.SelectedETF{Symbol: s, Name: s}
		if detail, err := svc.Detail(ctx, etf.Symbol); err == nil {
			etf.Detail = detail
			if detail.Name != "" {
				etf.Name = detail.Name
			}
		}
		etfs = append(etfs, etf)
	}
	return etfs, nil
}

func workspaceMarkdown(ws *etfx.Workspace) string {
	var b strings.Builder
	for _, sel := range []*etfx.Selection{ws.Comparator, ws.Analyzer} {
		var names []string
		for _, etf := range sel.ETFs() {
			names = append(names, etf.Symbol+" ("+etf.Name+")")
		}
		if len(names) == 0 {
			names = []string{"none"}
		}
		fmt.Fprintf(&b, "%s: %s\n\n", sel.Tool(), strings.Join(names, ", "))
	}
	b.WriteString(renderer.PortfolioMarkdown(ws.Builder.Allocations(), ws.Builder.Summary()))
	return b.String()
}

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}
