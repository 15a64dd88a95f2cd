// Package storage 提供了与对象存储服务（如 MinIO）交互的功能。
package storage

import (
	"context"
	"fmt"
	"strings"

	"meditalk-go/internal/config"
	"meditalk-go/pkg/log"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioClient 是一个全局的 MinIO 客户端实例。
// Endpoint 未配置时保持为 nil，归档功能整体禁用。
var MinioClient *minio.Client

var bucketName string

// InitMinIO 初始化 MinIO 客户端并确保指定的存储桶存在。
func InitMinIO(cfg config.MinIOConfig) {
	if cfg.Endpoint == "" {
		log.Info("未配置 MinIO endpoint，小结归档已禁用")
		return
	}

	var err error
	MinioClient, err = minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		log.Fatal("初始化 MinIO 客户端失败", err)
	}
	bucketName = cfg.BucketName

	log.Info("MinIO 客户端初始化成功")

	// 检查存储桶是否存在，不存在则创建
	ctx := context.Background()
	exists, err := MinioClient.BucketExists(ctx, bucketName)
	if err != nil {
		log.Fatal("检查 MinIO 存储桶失败", err)
	}

	if !exists {
		log.Infof("存储桶 '%s' 不存在，正在创建...", bucketName)
		err = MinioClient.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{})
		if err != nil {
			log.Fatal("创建 MinIO 存储桶失败", err)
		}
		log.Infof("存储桶 '%s' 创建成功", bucketName)
	} else {
		log.Infof("存储桶 '%s' 已存在", bucketName)
	}
}

// ArchiveSummary 将生成的小结文本归档到对象存储，按会话 ID 覆盖写入。
// 归档是尽力而为的：客户端未启用或上传失败都不影响小结的正常生成。
func ArchiveSummary(ctx context.Context, conversationID uint, content string) {
	if MinioClient == nil {
		return
	}

	objectName := fmt.Sprintf("summaries/conversation-%d.txt", conversationID)
	reader := strings.NewReader(content)
	_, err := MinioClient.PutObject(ctx, bucketName, objectName, reader, int64(len(content)),
		minio.PutObjectOptions{ContentType: "text/plain; charset=utf-8"})
	if err != nil {
		log.Errorf("归档小结到对象存储失败: conversation=%d, error: %v", conversationID, err)
		return
	}
	log.Infof("小结已归档: %s", objectName)
}
