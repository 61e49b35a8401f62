package huggingface

import (
	"context"
	"encoding/base64"

	"inference-gateway/config"
	"inference-gateway/models"
	"inference-gateway/provider"
)

// ObjectDetection posts the raw image and receives labelled boxes.
type ObjectDetection struct {
	client *Client
}

func (a *ObjectDetection) Kind() models.TaskKind { return models.KindObjectDetection }

func (a *ObjectDetection) Invoke(ctx context.Context, call provider.Call, cfg config.ProviderConfig) (provider.RawResponse, error) {
	if _, ok := call.Task.(models.ObjectDetection); !ok {
		return nil, wrongTask(a.Kind(), call.Task)
	}
	if err := requireMedia(a.Kind(), call.Media); err != nil {
		return nil, err
	}
	resp, err := a.client.postBinary(ctx, cfg, call.Media, "application/json")
	if err != nil {
		return nil, err
	}
	detections, err := decodeList[provider.RawDetection](cfg.Model, resp.Body)
	if err != nil {
		return nil, err
	}
	return provider.RawDetections(detections), nil
}

type visualQARequest struct {
	Inputs visualQAInputs `json:"inputs"`
}

type visualQAInputs struct {
	Question string `json:"question"`
	Image    string `json:"image"`
}

// VisualQA answers a question about an image.
type VisualQA struct {
	client *Client
}

func (a *VisualQA) Kind() models.TaskKind { return models.KindVisualQA }

func (a *VisualQA) Invoke(ctx context.Context, call provider.Call, cfg config.ProviderConfig) (provider.RawResponse, error) {
	task, ok := call.Task.(models.VisualQA)
	if !ok {
		return nil, wrongTask(a.Kind(), call.Task)
	}
	if err := requireMedia(a.Kind(), call.Media); err != nil {
		return nil, err
	}
	resp, err := a.client.postJSON(ctx, cfg, visualQARequest{
		Inputs: visualQAInputs{
			Question: task.Question,
			Image:    base64.StdEncoding.EncodeToString(call.Media.Bytes),
		},
	}, "application/json")
	if err != nil {
		return nil, err
	}
	answers, err := decodeList[provider.RawAnswer](cfg.Model, resp.Body)
	if err != nil {
		return nil, err
	}
	return provider.RawAnswers(answers), nil
}
