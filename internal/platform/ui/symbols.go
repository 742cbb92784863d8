// internal/platform/ui/symbols.go
package ui

// Icons globales para diferentes elementos de la UI
var (
	IconInput   = "🎯"
	IconRecords = "📦"
	IconWorkers = "⚙️"
	IconTime    = "⏱"
	IconSuccess = "✓"
	IconError   = "✗"
)

// Separadores y bordes
var (
	SeparatorHeavy = "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"
	SeparatorLight = "────────────────────────────────────────────"
)
