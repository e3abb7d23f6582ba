package batch

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sfn"
	jsoniter "github.com/json-iterator/go"

	"github.com/uma-arai/sbcntr-hotel/internal/common/config"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// SFNClient は Step Functions のうちバッチが利用するAPIです
type SFNClient interface {
	SendTaskSuccess(ctx context.Context, params *sfn.SendTaskSuccessInput, optFns ...func(*sfn.Options)) (*sfn.SendTaskSuccessOutput, error)
	SendTaskFailure(ctx context.Context, params *sfn.SendTaskFailureInput, optFns ...func(*sfn.Options)) (*sfn.SendTaskFailureOutput, error)
}

var _ SFNClient = (*sfn.Client)(nil)

// sendTaskSuccess は Step Functions にタスク成功と結果を通知します
// ローカル環境またはクライアント未設定の場合はスキップします
func sendTaskSuccess(ctx context.Context, cfg *config.Config, client SFNClient, logger *slog.Logger, result any) error {
	if cfg.IsLocal() || client == nil {
		logger.Info("local environment detected, skipping step functions task success notification")
		return nil
	}

	output, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal batch result: %w", err)
	}

	if cfg.SFN.TaskToken == "" {
		return fmt.Errorf("SFN_TASK_TOKEN is not set in config")
	}

	input := &sfn.SendTaskSuccessInput{
		TaskToken: aws.String(cfg.SFN.TaskToken),
		Output:    aws.String(string(output)),
	}
	if _, err := client.SendTaskSuccess(ctx, input); err != nil {
		return fmt.Errorf("failed to send task success: %w", err)
	}

	logger.Info("sent task success", "output", string(output))
	return nil
}

// SendTaskFailure は Step Functions にタスク失敗を通知します
func SendTaskFailure(ctx context.Context, cfg *config.Config, client SFNClient, cause error) error {
	if cfg.IsLocal() || client == nil {
		return nil
	}

	input := &sfn.SendTaskFailureInput{
		TaskToken: aws.String(cfg.SFN.TaskToken),
		Error:     aws.String("Batch process failed"),
		Cause:     aws.String(cause.Error()),
	}
	if _, err := client.SendTaskFailure(ctx, input); err != nil {
		return fmt.Errorf("failed to send task failure: %w", err)
	}
	return nil
}
