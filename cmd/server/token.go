package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"rdo-fidel/backend/pkg/jwt"
	"rdo-fidel/backend/pkg/redis"
)

var (
	tokenUserID string
	tokenName   string
	tokenRole   string
	revokeTTL   time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "访问令牌调试工具",
}

var tokenIssueCmd = &cobra.Command{
	Use:   "issue",
	Short: "签发访问令牌（仅用于本地调试，生产令牌由认证中心签发）",
	RunE: func(cmd *cobra.Command, _ []string) error {
		switch tokenRole {
		case jwt.RoleAdmin, jwt.RoleSupervisor, jwt.RoleForeman:
		default:
			return fmt.Errorf("无效角色 %q，可选 admin/supervisor/foreman", tokenRole)
		}

		cfg, _, err := bootstrap()
		if err != nil {
			return err
		}
		token, err := jwt.NewManager(&cfg.Auth).GenerateAccessToken(tokenUserID, tokenName, tokenRole)
		if err != nil {
			return fmt.Errorf("签发令牌失败: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

var tokenRevokeCmd = &cobra.Command{
	Use:   "revoke <token>",
	Short: "吊销令牌，加入 Redis 黑名单直至过期",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := bootstrap()
		if err != nil {
			return err
		}
		defer logger.Sync()

		ttl := revokeTTL
		claims, err := jwt.NewManager(&cfg.Auth).ParseToken(args[0])
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			fmt.Fprintln(cmd.OutOrStdout(), "令牌已过期，无需吊销")
			return nil
		case err != nil:
			return fmt.Errorf("解析令牌失败: %w", err)
		}
		if ttl <= 0 {
			ttl = claims.Remaining(time.Now())
		}

		rdb, err := redis.NewClient(&cfg.Redis, logger)
		if err != nil {
			return err
		}
		defer rdb.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rdb.BlacklistToken(ctx, claims.ID, ttl); err != nil {
			return fmt.Errorf("写入黑名单失败: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "已吊销 %s（%s）\n", claims.ID, ttl.Round(time.Second))
		return nil
	},
}

func init() {
	tokenIssueCmd.Flags().StringVar(&tokenUserID, "user", "", "用户 ID")
	tokenIssueCmd.Flags().StringVar(&tokenName, "name", "", "显示名称")
	tokenIssueCmd.Flags().StringVar(&tokenRole, "role", jwt.RoleSupervisor, "角色: admin/supervisor/foreman")
	_ = tokenIssueCmd.MarkFlagRequired("user")

	tokenRevokeCmd.Flags().DurationVar(&revokeTTL, "ttl", 0, "黑名单保留时长，默认取令牌剩余有效期")

	tokenCmd.AddCommand(tokenIssueCmd)
	tokenCmd.AddCommand(tokenRevokeCmd)
}
