package core

// ArenaPlayerID is the key of a wallet's participation in an arena.
func ArenaPlayerID(arena, address string) string {
	return arena + "-" + address
}

// ArenaPlanetID is the key of a planet inside an arena.
func ArenaPlanetID(arena, location string) string {
	return arena + "-" + location
}

// ConfigPlayerID is the key of a wallet's aggregate under one ruleset.
func ConfigPlayerID(address, configHash string) string {
	return address + "-" + configHash
}

// BlocklistID is the key of one blocked move inside an arena.
func BlocklistID(arena, source, destination string) string {
	return arena + "-" + source + "-" + destination
}
