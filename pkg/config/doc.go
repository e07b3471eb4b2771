// Package config loads protodoc configuration.
//
// Values are layered: built-in defaults, then an optional YAML file (named
// by PROTODOC_CONFIG or the --config flag), then PROTODOC_* environment
// variables. A .env file in the working directory is loaded into the
// environment first when present.
//
// Source settings:
//
//	PROTODOC_SOURCE="s3://schemas/api.binpb"   # or a path, file://path
//	PROTODOC_STRICT="true"
//	PROTODOC_S3_REGION="us-east-1"
//	PROTODOC_S3_ENDPOINT="http://minio:9000"
//	PROTODOC_S3_USE_PATH_STYLE="true"
//
// Schema settings:
//
//	PROTODOC_SCHEMA_DIR="./annotations"
//	PROTODOC_ROUTE_EXTENSIONS="yamcs.api.route,google.api.http"
//	PROTODOC_WEBSOCKET_EXTENSIONS="yamcs.api.websocket"
//	PROTODOC_EXCLUSIONS=".google.protobuf.Timestamp,.google.protobuf.Duration"
//
// Server and cache settings:
//
//	PROTODOC_HOST="0.0.0.0"
//	PROTODOC_PORT="8080"
//	PROTODOC_CACHE_SIZE="1024"
//	PROTODOC_CACHE_TTL="10m"
//
// Reload settings:
//
//	PROTODOC_WATCH="true"
//	PROTODOC_WATCH_DEBOUNCE="500ms"
//	PROTODOC_RELOAD_SCHEDULE="@every 5m"
//
// Observability settings:
//
//	PROTODOC_LOG_LEVEL="debug"
//	PROTODOC_LOG_FORMAT="json"
//	PROTODOC_METRICS_ENABLED="false"
//
// The same settings in YAML:
//
//	source:
//	  uri: ./api.binpb
//	server:
//	  port: "8080"
//	reload:
//	  watch: true
//	  debounce: 1s
package config
