package version

// Version is the bronson release version.
const Version = "1.0.0"
