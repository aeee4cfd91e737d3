package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

const (
	ScoringROCAUC     = "roc_auc"
	ScoringPRAUC      = "pr_auc"
	ScoringAccuracy   = "accuracy"
	ScoringNegLogLoss = "neg_log_loss"

	SearchModeGrid   = "grid"
	SearchModeRandom = "random"

	ExportCSV     = "csv"
	ExportJSON    = "json"
	ExportParquet = "parquet"
)

// DataFiles names the eight input tables inside Config.DataDir.
type DataFiles struct {
	Orders      string `mapstructure:"orders"`
	Items       string `mapstructure:"items"`
	Reviews     string `mapstructure:"reviews"`
	Products    string `mapstructure:"products"`
	Sellers     string `mapstructure:"sellers"`
	Payments    string `mapstructure:"payments"`
	Customers   string `mapstructure:"customers"`
	Geolocation string `mapstructure:"geolocation"`
}

type LogisticGrid struct {
	C       []float64 `mapstructure:"c"`
	Penalty []string  `mapstructure:"penalty"`
	MaxIter int       `mapstructure:"max_iter"`
}

type GBTGrid struct {
	NEstimators    []int     `mapstructure:"n_estimators"`
	MaxDepth       []int     `mapstructure:"max_depth"`
	LearningRate   []float64 `mapstructure:"learning_rate"`
	Subsample      []float64 `mapstructure:"subsample"`
	MinChildWeight []float64 `mapstructure:"min_child_weight"`
	MaxBins        int       `mapstructure:"max_bins"`
}

type CloudStorageConfig struct {
	Provider   string `mapstructure:"provider"`
	BucketName string `mapstructure:"bucket_name"`
	Region     string `mapstructure:"region"`
	Prefix     string `mapstructure:"prefix"`
}

type DatabaseConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// ConnString renders the pgx keyword/value connection string.
func (d DatabaseConfig) ConnString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

type GeneratorConfig struct {
	Orders    int       `mapstructure:"orders"`
	Customers int       `mapstructure:"customers"`
	Sellers   int       `mapstructure:"sellers"`
	Products  int       `mapstructure:"products"`
	StartDate time.Time `mapstructure:"start_date"`
	EndDate   time.Time `mapstructure:"end_date"`
	OutputDir string    `mapstructure:"output_dir"`
}

type Config struct {
	DataDir string    `mapstructure:"data_dir"`
	Files   DataFiles `mapstructure:"files"`

	Seed             int64     `mapstructure:"seed"`
	TestSize         float64   `mapstructure:"test_size"`
	CVFolds          int       `mapstructure:"cv_folds"`
	Workers          int       `mapstructure:"workers"`
	Scoring          string    `mapstructure:"scoring"`
	SearchMode       string    `mapstructure:"search_mode"`
	SearchIterations int       `mapstructure:"search_iterations"`
	Thresholds       []float64 `mapstructure:"thresholds"`
	MaxResponseHours float64   `mapstructure:"max_response_hours"`
	TopCategories    int       `mapstructure:"top_categories"`

	Logistic LogisticGrid `mapstructure:"logistic"`
	GBT      GBTGrid      `mapstructure:"gbt"`

	OutputDir         string             `mapstructure:"output_dir"`
	OutputDestination string             `mapstructure:"output_destination"` // local or cloud
	ExportFormat      string             `mapstructure:"export_format"`
	CloudStorage      CloudStorageConfig `mapstructure:"cloud_storage"`
	KafkaEnabled      bool               `mapstructure:"kafka_enabled"`
	KafkaBrokerList   string             `mapstructure:"kafka_broker_list"`
	KafkaTopic        string             `mapstructure:"kafka_topic"`
	Database          DatabaseConfig     `mapstructure:"database"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
	Progress  bool   `mapstructure:"progress"`

	Generator GeneratorConfig `mapstructure:"generator"`
}

// SetDefaults registers every default on v. The default grids hold 8
// logistic and 16 boosted-tree combinations.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("data_dir", "data")
	v.SetDefault("files.orders", "olist_orders_dataset.csv")
	v.SetDefault("files.items", "olist_order_items_dataset.csv")
	v.SetDefault("files.reviews", "olist_order_reviews_dataset.csv")
	v.SetDefault("files.products", "olist_products_dataset.csv")
	v.SetDefault("files.sellers", "olist_sellers_dataset.csv")
	v.SetDefault("files.payments", "olist_order_payments_dataset.csv")
	v.SetDefault("files.customers", "olist_customers_dataset.csv")
	v.SetDefault("files.geolocation", "olist_geolocation_dataset.csv")

	v.SetDefault("seed", 42)
	v.SetDefault("test_size", 0.2)
	v.SetDefault("cv_folds", 5)
	v.SetDefault("workers", 12)
	v.SetDefault("scoring", ScoringROCAUC)
	v.SetDefault("search_mode", SearchModeGrid)
	v.SetDefault("search_iterations", 10)
	v.SetDefault("thresholds", []float64{0.5, 0.2})
	v.SetDefault("max_response_hours", 240.0)
	v.SetDefault("top_categories", 15)

	v.SetDefault("logistic.c", []float64{0.01, 0.1, 1, 10})
	v.SetDefault("logistic.penalty", []string{"l1", "l2"})
	v.SetDefault("logistic.max_iter", 300)

	v.SetDefault("gbt.n_estimators", []int{100, 200})
	v.SetDefault("gbt.max_depth", []int{3, 5})
	v.SetDefault("gbt.learning_rate", []float64{0.05, 0.1})
	v.SetDefault("gbt.subsample", []float64{0.8, 1.0})
	v.SetDefault("gbt.min_child_weight", []float64{1})
	v.SetDefault("gbt.max_bins", 64)

	v.SetDefault("output_dir", "report")
	v.SetDefault("output_destination", "local")
	v.SetDefault("export_format", ExportCSV)
	v.SetDefault("cloud_storage.provider", "s3")
	v.SetDefault("cloud_storage.region", "us-east-1")
	v.SetDefault("kafka_broker_list", "localhost:9092")
	v.SetDefault("kafka_topic", "review_model_runs")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.sslmode", "disable")

	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("progress", true)

	v.SetDefault("generator.orders", 5000)
	v.SetDefault("generator.customers", 3000)
	v.SetDefault("generator.sellers", 150)
	v.SetDefault("generator.products", 800)
	v.SetDefault("generator.start_date", "2017-01-01T00:00:00Z")
	v.SetDefault("generator.end_date", "2018-08-31T00:00:00Z")
	v.SetDefault("generator.output_dir", "data")
}

// LoadConfig initializes and reads the configuration using Viper
func LoadConfig(cfgFile string) (*Config, error) {
	v := viper.GetViper()
	SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("reviewclf")
	}

	v.SetEnvPrefix("reviewclf")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// an explicit file must exist, the default one is optional
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	return DecodeConfig(v)
}

// DecodeConfig unmarshals v into a validated Config.
func DecodeConfig(v *viper.Viper) (*Config, error) {
	var config Config
	decoderConfigOption := viper.DecoderConfigOption(func(config *mapstructure.DecoderConfig) {
		config.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			config.DecodeHook,
			mapstructure.StringToTimeHookFunc(time.RFC3339),
		)
	})
	if err := v.Unmarshal(&config, decoderConfigOption); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

var ErrInvalidConfig = errors.New("invalid config")

func (cfg *Config) Validate() error {
	var problems []string

	if cfg.CVFolds < 2 {
		problems = append(problems, "cv_folds must be at least 2")
	}
	if cfg.Workers < 1 {
		problems = append(problems, "workers must be positive")
	}
	if cfg.TestSize <= 0 || cfg.TestSize >= 1 {
		problems = append(problems, "test_size must be in (0, 1)")
	}
	if len(cfg.Thresholds) == 0 {
		problems = append(problems, "at least one threshold is required")
	}
	for _, t := range cfg.Thresholds {
		if t <= 0 || t >= 1 {
			problems = append(problems, fmt.Sprintf("threshold %v must be in (0, 1)", t))
		}
	}
	switch cfg.Scoring {
	case ScoringROCAUC, ScoringPRAUC, ScoringAccuracy, ScoringNegLogLoss:
	default:
		problems = append(problems, fmt.Sprintf("unknown scoring %q", cfg.Scoring))
	}
	switch cfg.SearchMode {
	case SearchModeGrid:
	case SearchModeRandom:
		if cfg.SearchIterations < 1 {
			problems = append(problems, "search_iterations must be positive in random mode")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown search_mode %q", cfg.SearchMode))
	}
	switch cfg.ExportFormat {
	case ExportCSV, ExportJSON, ExportParquet:
	default:
		problems = append(problems, fmt.Sprintf("unknown export_format %q", cfg.ExportFormat))
	}
	axes := []struct {
		key string
		n   int
	}{
		{"logistic.c", len(cfg.Logistic.C)},
		{"logistic.penalty", len(cfg.Logistic.Penalty)},
		{"gbt.n_estimators", len(cfg.GBT.NEstimators)},
		{"gbt.max_depth", len(cfg.GBT.MaxDepth)},
		{"gbt.learning_rate", len(cfg.GBT.LearningRate)},
		{"gbt.subsample", len(cfg.GBT.Subsample)},
		{"gbt.min_child_weight", len(cfg.GBT.MinChildWeight)},
	}
	for _, axis := range axes {
		if axis.n == 0 {
			problems = append(problems, fmt.Sprintf("%s needs at least one value", axis.key))
		}
	}
	for _, p := range cfg.Logistic.Penalty {
		if p != "l1" && p != "l2" {
			problems = append(problems, fmt.Sprintf("unknown logistic penalty %q", p))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}
