package build

// Version is the release version, overridden at link time with
// -ldflags "-X github.com/ng-cloudflare/plexrequest/pkg/build.Version=..."
var Version = "v0.0.0-dev"
