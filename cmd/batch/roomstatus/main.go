package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sfn"

	"github.com/uma-arai/sbcntr-hotel/internal/common/bootstrap"
	"github.com/uma-arai/sbcntr-hotel/internal/common/clock"
	"github.com/uma-arai/sbcntr-hotel/internal/common/config"
	"github.com/uma-arai/sbcntr-hotel/internal/common/database"
	"github.com/uma-arai/sbcntr-hotel/internal/common/utils"
	"github.com/uma-arai/sbcntr-hotel/internal/repository"
	"github.com/uma-arai/sbcntr-hotel/internal/service/batch"
)

const (
	projectName = "sbcntr-hotel-roomstatus"
)

func main() {
	// コマンドライン引数のパース
	timeout := flag.Duration("timeout", 5*time.Minute, "バッチ処理のタイムアウト時間")
	flag.Parse()

	logger := bootstrap.NewLogger(projectName)

	// 設定の読み込み
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(utils.GetStackWithError(err))
	}

	// 最後の引数として渡されたタスクトークンを取得
	// ENV=LOCALの場合はタスクトークンを取得しない
	if !cfg.IsLocal() {
		if flag.NArg() > 0 {
			cfg.SFN.TaskToken = flag.Arg(flag.NArg() - 1)
		}
		if cfg.SFN.TaskToken == "" {
			log.Fatal("task token is required")
		}
	}

	if err := bootstrap.ConfigureXRay(cfg, logger); err != nil {
		log.Fatal(utils.GetStackWithError(err))
	}

	// Step Functionsクライアントの初期化
	var sfnClient batch.SFNClient
	if !cfg.IsLocal() {
		awsCfg, err := awsconfig.LoadDefaultConfig(context.Background())
		if err != nil {
			log.Fatal(utils.GetStackWithError(err))
		}
		sfnClient = sfn.NewFromConfig(awsCfg)
	}

	db, err := database.NewDB(cfg.DB)
	if err != nil {
		log.Fatal(utils.GetStackWithError(err))
	}
	defer db.Close()

	service := batch.NewRoomStatusBatchService(
		cfg,
		repository.NewRoomRepository(db),
		repository.NewReservationRepository(db),
		sfnClient,
		clock.UTC{},
		logger,
	)

	ctx, end := bootstrap.BeginSegment(context.Background(), cfg, projectName, map[string]any{
		"task_token": cfg.SFN.TaskToken,
		"timeout":    timeout.String(),
	})

	err = batch.Execute(ctx, cfg, sfnClient, service, *timeout, logger)
	end(err)
	if err != nil {
		db.Close()
		os.Exit(1)
	}
}
