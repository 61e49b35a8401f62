package huggingface

import (
	"context"
	"encoding/base64"

	"inference-gateway/config"
	"inference-gateway/models"
	"inference-gateway/provider"
)

type textToImageRequest struct {
	Inputs     string                `json:"inputs"`
	Parameters textToImageParameters `json:"parameters"`
}

type textToImageParameters struct {
	NegativePrompt string `json:"negative_prompt"`
}

// TextToImage generates an image from a prompt.
type TextToImage struct {
	client *Client
}

func (a *TextToImage) Kind() models.TaskKind { return models.KindTextToImage }

func (a *TextToImage) Invoke(ctx context.Context, call provider.Call, cfg config.ProviderConfig) (provider.RawResponse, error) {
	task, ok := call.Task.(models.TextToImage)
	if !ok {
		return nil, wrongTask(a.Kind(), call.Task)
	}
	resp, err := a.client.postJSON(ctx, cfg, textToImageRequest{
		Inputs:     task.Prompt,
		Parameters: textToImageParameters{NegativePrompt: task.NegativePrompt},
	}, "image/png")
	if err != nil {
		return nil, err
	}
	return provider.RawImage{Bytes: resp.Body, ContentType: resp.ContentType}, nil
}

type imageToImageRequest struct {
	Inputs     string                 `json:"inputs"`
	Parameters imageToImageParameters `json:"parameters"`
}

type imageToImageParameters struct {
	Prompt string `json:"prompt"`
}

// ImageToImage refines an image guided by a prompt. The image travels
// base64 encoded inside the JSON body.
type ImageToImage struct {
	client *Client
}

func (a *ImageToImage) Kind() models.TaskKind { return models.KindImageToImage }

func (a *ImageToImage) Invoke(ctx context.Context, call provider.Call, cfg config.ProviderConfig) (provider.RawResponse, error) {
	task, ok := call.Task.(models.ImageToImage)
	if !ok {
		return nil, wrongTask(a.Kind(), call.Task)
	}
	if err := requireMedia(a.Kind(), call.Media); err != nil {
		return nil, err
	}
	resp, err := a.client.postJSON(ctx, cfg, imageToImageRequest{
		Inputs:     base64.StdEncoding.EncodeToString(call.Media.Bytes),
		Parameters: imageToImageParameters{Prompt: task.Prompt},
	}, "image/png")
	if err != nil {
		return nil, err
	}
	return provider.RawImage{Bytes: resp.Body, ContentType: resp.ContentType}, nil
}
