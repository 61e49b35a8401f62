// Package huggingface implements provider adapters for the Hugging Face
// Inference API. Each adapter owns one task kind and its parameter schema.
package huggingface

import (
	"fmt"

	"inference-gateway/models"
	"inference-gateway/provider"
)

// All returns one adapter per task kind, sharing client.
func All(client *Client) []provider.Adapter {
	return []provider.Adapter{
		&TextToImage{client: client},
		&ImageToImage{client: client},
		&ObjectDetection{client: client},
		&VisualQA{client: client},
		&SpeechToText{client: client},
		&TextToSpeech{client: client},
		&Translate{client: client},
		&AudioToAudio{client: client},
	}
}

func wrongTask(want models.TaskKind, got models.Task) error {
	return models.NewValidationError(fmt.Sprintf("%s adapter cannot serve a %T task", want, got))
}

func requireMedia(kind models.TaskKind, blob models.MediaBlob) error {
	if len(blob.Bytes) == 0 {
		return models.NewEncodingError(fmt.Sprintf("%s requires encoded media", kind), nil)
	}
	return nil
}
