package aws

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"

	"github.com/ng-cloudflare/plexrequest/pkg/config"
)

// ErrMissingSecret means that the value returned from Secrets was empty
var ErrMissingSecret = errors.New("missing value for secret")

// Environment variables naming SSM parameters that hold secrets.
const (
	NotionKeyParamEnv        = "NOTION_INTEGRATION_KEY_PARAM"
	PassphraseAnswerParamEnv = "PLEX_PASSPHRASE_ANSWER_PARAM"
)

// SSMGetParametersAPI is the part of the SSM client used to read secrets.
type SSMGetParametersAPI interface {
	GetParameters(ctx context.Context, params *ssm.GetParametersInput, optFns ...func(*ssm.Options)) (*ssm.GetParametersOutput, error)
}

// SecretParams names the SSM parameters to resolve. Empty names are skipped.
type SecretParams struct {
	NotionKey        string
	PassphraseAnswer string
}

// SecretParamsFromEnv reads the parameter names from the environment.
func SecretParamsFromEnv() SecretParams {
	return SecretParams{
		NotionKey:        os.Getenv(NotionKeyParamEnv),
		PassphraseAnswer: os.Getenv(PassphraseAnswerParamEnv),
	}
}

// ResolveSecrets replaces secret config values with the decrypted values of
// the named SSM parameters.
func ResolveSecrets(ctx context.Context, client SSMGetParametersAPI, params SecretParams, cfg *config.Config) error {
	var names []string
	for _, n := range []string{params.NotionKey, params.PassphraseAnswer} {
		if n != "" {
			names = append(names, n)
		}
	}
	if len(names) == 0 {
		return nil
	}

	values, err := getSSMParams(ctx, client, names...)
	if err != nil {
		return err
	}
	if params.NotionKey != "" {
		cfg.Records.NotionKey = values[params.NotionKey]
	}
	if params.PassphraseAnswer != "" {
		cfg.Passphrase.Answer = values[params.PassphraseAnswer]
	}
	return nil
}

func getSSMParams(ctx context.Context, client SSMGetParametersAPI, names ...string) (map[string]string, error) {
	response, err := client.GetParameters(ctx, &ssm.GetParametersInput{
		Names:          names,
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("retrieving SSM parameters: %w", err)
	}
	params := map[string]string{}
	for _, name := range names {
		value := ""
		for _, p := range response.Parameters {
			if p.Name != nil && *p.Name == name && p.Value != nil {
				value = *p.Value
				break
			}
		}
		if value == "" {
			return nil, fmt.Errorf("%w: %s", ErrMissingSecret, name)
		}
		params[name] = value
	}
	return params, nil
}
