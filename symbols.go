package qslot

// Symbols is the reel symbol table. A measured bit indexes into it with a
// stride of half the table, so a 0 lands on the first symbol and a 1 on the
// middle one. Only two symbols are reachable per spin; the full table is
// still reported by the info endpoint.
var Symbols = []string{"🍒", "🍋", "🍊", "🍇", "⭐", "💎", "7️⃣", "🔔"}

// SymbolForBit maps a single measured bit (0 or 1) to its reel symbol.
func SymbolForBit(bit int) string {
	stride := len(Symbols) / 2
	return Symbols[(bit*stride)%len(Symbols)]
}

// SymbolsFor maps a drawn outcome to its three reel symbols.
func SymbolsFor(outcome DrawnOutcome) []string {
	symbols := make([]string, NumQubits)
	for i, bit := range outcome.Bits {
		symbols[i] = SymbolForBit(bit)
	}
	return symbols
}
