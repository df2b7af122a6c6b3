package main

import (
	"github.com/redbco/redb-facade/cmd/cli/internal/cache"
	"github.com/spf13/cobra"
)

// cacheCmd represents the cache command
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Work with the Redis cache",
	Long:  `Store, read and expire cached strings and hash fields through the key-value adapter.`,
}

// cacheSetCmd represents the cache set command
var cacheSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Store a value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		ttl := s.Config.Redis.DefaultTTL
		if cmd.Flags().Changed("ttl") {
			ttl, _ = cmd.Flags().GetDuration("ttl")
		}
		field, _ := cmd.Flags().GetString("field")

		a, err := cache.Open(cmd.Context(), s)
		if err != nil {
			return err
		}
		defer a.Close()

		return cache.Set(cmd.Context(), s, a, args[0], field, args[1], ttl)
	},
}

// cacheGetCmd represents the cache get command
var cacheGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Print a cached value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		field, _ := cmd.Flags().GetString("field")

		a, err := cache.Open(cmd.Context(), s)
		if err != nil {
			return err
		}
		defer a.Close()

		return cache.Get(cmd.Context(), s, a, args[0], field)
	},
}

// cacheExpireCmd represents the cache expire command
var cacheExpireCmd = &cobra.Command{
	Use:   "expire [key]",
	Short: "Set a key's expiry, or delete it with --ttl 0",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		ttl, _ := cmd.Flags().GetDuration("ttl")

		a, err := cache.Open(cmd.Context(), s)
		if err != nil {
			return err
		}
		defer a.Close()

		return cache.Expire(cmd.Context(), s, a, args[0], ttl)
	},
}

// cacheTTLCmd represents the cache ttl command
var cacheTTLCmd = &cobra.Command{
	Use:   "ttl [key]",
	Short: "Print a key's remaining lifetime",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		a, err := cache.Open(cmd.Context(), s)
		if err != nil {
			return err
		}
		defer a.Close()

		return cache.TTL(cmd.Context(), s, a, args[0])
	},
}

func init() {
	cacheSetCmd.Flags().Duration("ttl", 0, "Expiry of the value (default redis.default_ttl, 0 for none)")
	cacheSetCmd.Flags().String("field", "", "Store into this field of a hash")
	cacheGetCmd.Flags().String("field", "", "Read this field of a hash")
	cacheExpireCmd.Flags().Duration("ttl", 0, "New expiry; 0 deletes the key")

	cacheCmd.AddCommand(cacheSetCmd)
	cacheCmd.AddCommand(cacheGetCmd)
	cacheCmd.AddCommand(cacheExpireCmd)
	cacheCmd.AddCommand(cacheTTLCmd)
}
