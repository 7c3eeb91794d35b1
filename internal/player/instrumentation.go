package player

import "go.opentelemetry.io/otel"

const scopeName = "codeberg.org/snonux/pronounce/internal/player"

var tracer = otel.Tracer(scopeName)
