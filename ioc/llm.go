package ioc

import (
	"context"

	"github.com/google/generative-ai-go/genai"
	"github.com/spf13/viper"
	"google.golang.org/api/option"
)

func InitGeminiCli() *genai.Client {
	apiKey := viper.GetString("llm.gemini.api_key")
	if apiKey == "" {
		panic("no gemini api key set")
	}

	cli, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		panic(err)
	}
	return cli
}
