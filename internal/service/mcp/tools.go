package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"strings"

	apperrors "github.com/darkkaiser/bikonomi/internal/pkg/errors"
	"github.com/darkkaiser/bikonomi/internal/service/analyzer"
	"github.com/darkkaiser/bikonomi/internal/service/analyzer/numparse"
	"github.com/darkkaiser/bikonomi/internal/service/analyzer/source"
	applog "github.com/darkkaiser/bikonomi/pkg/log"
	"github.com/darkkaiser/bikonomi/pkg/maputil"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/mitchellh/mapstructure"
)

const (
	toolAnalyzeProduct  = "analyze_product"
	toolContributePrice = "contribute_price"
)

type analyzeArgs struct {
	URL            string   `json:"url"`
	ManualPrice    *float64 `json:"manual_price"`
	ManualShipping *float64 `json:"manual_shipping"`
}

type contributeArgs struct {
	ProductKey string   `json:"product_key"`
	Price      float64  `json:"price"`
	Shipping   *float64 `json:"shipping"`
}

type tools struct {
	analyzer Analyzer
}

func registerTools(s *server.MCPServer, t *tools) {
	s.AddTool(mcp.NewTool(toolAnalyzeProduct,
		mcp.WithDescription("Analyze a Trendyol, Hepsiburada or Amazon TR product link and score its price"),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("Product page URL"),
		),
		mcp.WithNumber("manual_price",
			mcp.Description("Price entered by the user when the page cannot be read"),
		),
		mcp.WithNumber("manual_shipping",
			mcp.Description("Shipping cost for manual_price"),
		),
	), t.handleAnalyzeProduct)

	s.AddTool(mcp.NewTool(toolContributePrice,
		mcp.WithDescription("Record a user-observed price for a product key returned by analyze_product"),
		mcp.WithString("product_key",
			mcp.Required(),
			mcp.Description("productKey from an analyze_product result"),
		),
		mcp.WithNumber("price",
			mcp.Required(),
			mcp.Description("Observed price in TRY"),
		),
		mcp.WithNumber("shipping",
			mcp.Description("Shipping cost in TRY"),
		),
	), t.handleContributePrice)
}

func (t *tools) handleAnalyzeProduct(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := decodeArgs[analyzeArgs](request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	resp, err := t.analyzer.Analyze(ctx, analyzer.Input{
		URL:            args.URL,
		ManualPrice:    args.ManualPrice,
		ManualShipping: args.ManualShipping,
	})
	if err != nil {
		return toolError(toolAnalyzeProduct, err), nil
	}

	return jsonResult(resp)
}

func (t *tools) handleContributePrice(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := decodeArgs[contributeArgs](request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	key := strings.TrimSpace(args.ProductKey)
	if key == "" {
		return mcp.NewToolResultError("product_key is required"), nil
	}

	err = t.analyzer.Contribute(ctx, analyzer.Contribution{
		ProductKey: key,
		Price:      args.Price,
		Shipping:   args.Shipping,
	})
	if err != nil {
		return toolError(toolContributePrice, err), nil
	}

	return jsonResult(map[string]any{"ok": true, "productKey": key})
}

// decodeArgs 도구 인자를 구조체로 변환합니다. 금액 문자열은 "1.299,90" 같은 터키식 표기도 허용합니다.
func decodeArgs[T any](request mcp.CallToolRequest) (*T, error) {
	return maputil.Decode[T](request.GetArguments(),
		maputil.WithErrorUnused(true),
		maputil.WithDecodeHook(stringToAmountHookFunc()),
	)
}

func stringToAmountHookFunc() mapstructure.DecodeHookFunc {
	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		if f.Kind() != reflect.String || t.Kind() != reflect.Float64 {
			return data, nil
		}
		if v, ok := numparse.Parse(reflect.ValueOf(data).String()); ok {
			return v, nil
		}
		return data, nil
	}
}

// toolError 잘못된 입력은 메시지만, 그 밖의 오류는 로그를 남기고 일반화된 메시지를 돌려줍니다.
func toolError(tool string, err error) *mcp.CallToolResult {
	if errors.Is(err, analyzer.ErrInvalidURL) {
		return mcp.NewToolResultError(source.InvalidURLMessage)
	}

	var appErr *apperrors.AppError
	if apperrors.Is(err, apperrors.InvalidInput) && apperrors.As(err, &appErr) {
		return mcp.NewToolResultError(appErr.Message())
	}

	applog.WithComponentAndFields(component, applog.Fields{
		"tool":  tool,
		"error": err,
	}).Error("MCP 도구 실행 실패")

	return mcp.NewToolResultError(tool + " failed: " + apperrors.RootCause(err).Error())
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.Internal, "도구 결과를 JSON으로 변환하지 못했습니다")
	}
	return mcp.NewToolResultText(string(data)), nil
}
