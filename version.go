package astore

// Version is the SDK's version string, reported in the default User-Agent.
const Version = "0.1.0"
