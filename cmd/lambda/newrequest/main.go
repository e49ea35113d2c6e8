package main

import (
	"net/http"

	"github.com/ng-cloudflare/plexrequest/cmd/lambda"
	"github.com/ng-cloudflare/plexrequest/pkg/aws"
)

func main() {
	lambda.StartHTTPHandler(makeHandler)
}

func makeHandler(cfg aws.Config) (http.Handler, error) {
	service, err := aws.Construct(cfg)
	if err != nil {
		return nil, err
	}
	return service.Server()
}
