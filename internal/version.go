package internal

// Version of pronounce, overridden at build time with
// -ldflags "-X codeberg.org/snonux/pronounce/internal.Version=..."
var Version = "0.1.0"
