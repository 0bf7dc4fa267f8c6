// Package config loads gateway configuration from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
)

// Config is the full gateway configuration, grouped by concern.
type Config struct {
	Service       ServiceConfig
	Transcription TranscriptionConfig
	EHR           EHRConfig
	HL7           HL7Config
	Kafka         KafkaConfig
	Audit         AuditConfig
	Watch         WatchConfig
	Observability ObservabilityConfig
}

// ServiceConfig identifies the service and its API listener.
type ServiceConfig struct {
	Principal string
	HTTPPort  string
}

// TranscriptionConfig selects and configures the speech provider.
type TranscriptionConfig struct {
	// Provider is one of "deepgram", "google", or "mock".
	Provider       string
	DeepgramAPIKey string
	Model          string
	Language       string
	Diarize        bool
	SmartFormat    bool
}

// EHRConfig configures the FHIR submission target and its OAuth2 flow.
type EHRConfig struct {
	// Vendor is "epic" (backend services JWT bearer) or "cerner"
	// (client credentials).
	Vendor         string
	BaseURL        string
	TokenURL       string
	ClientID       string
	ClientSecret   string
	Scope          string
	PrivateKeyPath string
}

// HL7Config carries the MSH routing identifiers for built messages.
type HL7Config struct {
	SendingApp        string
	SendingFacility   string
	ReceivingApp      string
	ReceivingFacility string
}

// KafkaConfig configures the document lifecycle event publisher.
type KafkaConfig struct {
	Enabled        bool
	Brokers        []string
	TopicDocuments string
	TopicHL7       string
	Principal      string
}

// AuditConfig configures the submission audit store.
type AuditConfig struct {
	Enabled bool
	DBPath  string
}

// WatchConfig configures the dictation drop folder.
type WatchConfig struct {
	Enabled bool
	Dir     string
}

// ObservabilityConfig configures logging and the ops HTTP server.
type ObservabilityConfig struct {
	LogLevel    string
	LogFormat   string
	MetricsAddr string
}

// Load reads configuration from environment variables, applying
// defaults for anything unset. Values that fail to parse fall back to
// their defaults rather than aborting startup.
func Load() *Config {
	principal := envOrDefault("SERVICE_PRINCIPAL", "clinical-ehr-gateway")

	return &Config{
		Service: ServiceConfig{
			Principal: principal,
			HTTPPort:  envOrDefault("HTTP_PORT", "8080"),
		},
		Transcription: TranscriptionConfig{
			Provider:       envOrDefault("TRANSCRIPTION_PROVIDER", "mock"),
			DeepgramAPIKey: envOrDefault("DEEPGRAM_API_KEY", ""),
			Model:          envOrDefault("TRANSCRIPTION_MODEL", "nova-3-medical"),
			Language:       envOrDefault("TRANSCRIPTION_LANGUAGE", "en-US"),
			Diarize:        envOrDefaultBool("TRANSCRIPTION_DIARIZE", true),
			SmartFormat:    envOrDefaultBool("TRANSCRIPTION_SMART_FORMAT", true),
		},
		EHR: EHRConfig{
			Vendor:         envOrDefault("EHR_VENDOR", "epic"),
			BaseURL:        envOrDefault("EHR_BASE_URL", ""),
			TokenURL:       envOrDefault("EHR_TOKEN_URL", ""),
			ClientID:       envOrDefault("EHR_CLIENT_ID", ""),
			ClientSecret:   envOrDefault("EHR_CLIENT_SECRET", ""),
			Scope:          envOrDefault("EHR_SCOPE", "system/DocumentReference.write"),
			PrivateKeyPath: envOrDefault("EHR_PRIVATE_KEY_PATH", ""),
		},
		HL7: HL7Config{
			SendingApp:        envOrDefault("HL7_SENDING_APP", "DEEPGRAM"),
			SendingFacility:   envOrDefault("HL7_SENDING_FACILITY", "EHR"),
			ReceivingApp:      envOrDefault("HL7_RECEIVING_APP", "EHR_SYSTEM"),
			ReceivingFacility: envOrDefault("HL7_RECEIVING_FACILITY", "FACILITY"),
		},
		Kafka: KafkaConfig{
			Enabled:        envOrDefaultBool("KAFKA_ENABLED", false),
			Brokers:        envSplit("KAFKA_BROKERS"),
			TopicDocuments: envOrDefault("KAFKA_TOPIC_DOCUMENTS", "ehr.documents"),
			TopicHL7:       envOrDefault("KAFKA_TOPIC_HL7", "ehr.hl7"),
			Principal:      envOrDefault("KAFKA_PRINCIPAL", principal),
		},
		Audit: AuditConfig{
			Enabled: envOrDefaultBool("AUDIT_ENABLED", true),
			DBPath:  envOrDefault("AUDIT_DB_PATH", "./data/audit.db"),
		},
		Watch: WatchConfig{
			Enabled: envOrDefaultBool("WATCH_ENABLED", false),
			Dir:     envOrDefault("WATCH_DIR", "./inbox"),
		},
		Observability: ObservabilityConfig{
			LogLevel:    envOrDefault("LOG_LEVEL", "info"),
			LogFormat:   envOrDefault("LOG_FORMAT", "json"),
			MetricsAddr: envOrDefault("METRICS_ADDR", ":9090"),
		},
	}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrDefaultBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(strings.ToLower(v))
	if err != nil {
		return def
	}
	return b
}

// envSplit reads a comma-separated list, dropping empty entries.
func envSplit(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
