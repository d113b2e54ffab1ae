package main

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/uniconnect/backend/internal/cache"
	"github.com/uniconnect/backend/internal/config"
	"github.com/uniconnect/backend/internal/database"
	"github.com/uniconnect/backend/internal/logger"
	"github.com/uniconnect/backend/internal/seed"
	"gorm.io/gorm"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDatabase(func(cfg *config.Config, db *gorm.DB) error {
			fmt.Println("📈 Running migrations...")
			if err := database.Migrate(db); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Println("✅ All migrations completed successfully!")
			return nil
		})
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed [dev|test|clean]",
	Short: "Populate or clear seed data",
	Long: `Seed the database with generated users, posts, connections, groups,
messages and notifications. Every seeded account uses the password
"` + seed.DefaultPassword + `".

  dev   - Seed development database with realistic data
  test  - Seed test database with minimal data
  clean - Remove all seed data`,
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"dev", "test", "clean"},
	RunE: func(cmd *cobra.Command, args []string) error {
		mode := "dev"
		if len(args) == 1 {
			mode = args[0]
		}
		return withDatabase(func(cfg *config.Config, db *gorm.DB) error {
			if cfg.IsProduction() && mode != "clean" {
				return fmt.Errorf("refusing to seed a production database")
			}
			if err := database.Migrate(db); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			seeder := seed.NewSeeder(db)
			ctx := cmd.Context()
			var err error
			switch mode {
			case "dev":
				fmt.Println("🌱 Seeding development database...")
				err = seeder.SeedDev(ctx)
			case "test":
				fmt.Println("🌱 Seeding test database...")
				err = seeder.SeedTest(ctx)
			case "clean":
				fmt.Println("🧹 Removing seed data...")
				err = seeder.Clean(ctx)
			}
			if err != nil {
				return err
			}
			fmt.Println("✅ Done")
			return nil
		})
	},
}

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and clear cached API responses",
}

var cacheKeysCmd = &cobra.Command{
	Use:   "keys <mutation>",
	Short: "Print the cache keys a mutation invalidates",
	Long:  "Print the cache keys a mutation invalidates without touching Redis.\n\nMutations: " + strings.Join(mutationNames(), ", "),
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := parseMutation(args[0])
		if err != nil {
			return err
		}
		for _, k := range cache.KeysFor(m, subjectsFromFlags(cmd)) {
			fmt.Println(k.String())
		}
		return nil
	},
}

var cacheInvalidateCmd = &cobra.Command{
	Use:   "invalidate <mutation>",
	Short: "Delete the cache keys a mutation invalidates",
	Long: `Delete the cache keys a mutation invalidates.

Example:
  uniconnect cache invalidate group_joined --group <group-id> --actor <user-id>

Mutations: ` + strings.Join(mutationNames(), ", "),
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := parseMutation(args[0])
		if err != nil {
			return err
		}
		s := subjectsFromFlags(cmd)
		keys := cache.KeysFor(m, s)
		if len(keys) == 0 {
			return fmt.Errorf("no keys to invalidate: set --group, --actor or --subject")
		}
		return withCache(func(c *cache.Cache) error {
			c.Invalidate(cmd.Context(), m, s)
			for _, k := range keys {
				fmt.Printf("✓ %s\n", k.String())
			}
			return nil
		})
	},
}

var cacheDeleteCmd = &cobra.Command{
	Use:   "delete <resource> <id>",
	Short: "Delete one cache entry",
	Long:  "Delete one cache entry.\n\nResources: " + strings.Join(resourceNames(), ", "),
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := parseResource(args[0])
		if err != nil {
			return err
		}
		key := cache.KeyOf(r, args[1])
		return withCache(func(c *cache.Cache) error {
			c.Delete(cmd.Context(), key)
			fmt.Printf("✓ %s\n", key.String())
			return nil
		})
	},
}

func init() {
	for _, cmd := range []*cobra.Command{cacheKeysCmd, cacheInvalidateCmd} {
		cmd.Flags().String("group", "", "Affected group ID")
		cmd.Flags().String("actor", "", "ID of the user who performed the mutation")
		cmd.Flags().String("subject", "", "ID of the user the mutation is about")
	}
	cacheCmd.AddCommand(cacheKeysCmd)
	cacheCmd.AddCommand(cacheInvalidateCmd)
	cacheCmd.AddCommand(cacheDeleteCmd)
}

func subjectsFromFlags(cmd *cobra.Command) cache.Subjects {
	group, _ := cmd.Flags().GetString("group")
	actor, _ := cmd.Flags().GetString("actor")
	subject, _ := cmd.Flags().GetString("subject")
	return cache.Subjects{GroupID: group, ActorID: actor, SubjectID: subject}
}

func parseMutation(name string) (cache.Mutation, error) {
	m := cache.Mutation(name)
	if _, ok := cache.Policy[m]; !ok {
		return "", fmt.Errorf("unknown mutation %q (valid: %s)", name, strings.Join(mutationNames(), ", "))
	}
	return m, nil
}

func parseResource(name string) (cache.Resource, error) {
	for _, r := range cache.Resources() {
		if string(r) == name {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown resource %q (valid: %s)", name, strings.Join(resourceNames(), ", "))
}

func mutationNames() []string {
	names := make([]string, 0, len(cache.Policy))
	for m := range cache.Policy {
		names = append(names, string(m))
	}
	sort.Strings(names)
	return names
}

func resourceNames() []string {
	var names []string
	for _, r := range cache.Resources() {
		names = append(names, string(r))
	}
	return names
}

// withDatabase loads configuration and opens the database for one command
func withDatabase(fn func(cfg *config.Config, db *gorm.DB) error) error {
	cfg, err := loadAdminConfig()
	if err != nil {
		return err
	}
	fmt.Println("🔄 Connecting to database...")
	db, err := database.Open(cfg.Database, cfg.Environment)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close(db)
	fmt.Println("✅ Database connected")
	return fn(cfg, db)
}

// withCache connects to Redis for one command
func withCache(fn func(c *cache.Cache) error) error {
	cfg, err := loadAdminConfig()
	if err != nil {
		return err
	}
	store := cache.NewRedisStore(cache.NewRedisClient(cfg.Redis))
	defer store.Close()

	c := cache.New(store)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.Ping(ctx); err != nil {
		return fmt.Errorf("failed to connect to redis at %s: %w", cfg.Redis.Addr, err)
	}
	return fn(c)
}

func loadAdminConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := logger.Initialize(cfg.LogLevel, ""); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, nil
}
