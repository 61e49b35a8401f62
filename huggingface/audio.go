package huggingface

import (
	"context"

	"inference-gateway/config"
	"inference-gateway/models"
	"inference-gateway/provider"
)

// SpeechToText transcribes a raw audio body.
type SpeechToText struct {
	client *Client
}

func (a *SpeechToText) Kind() models.TaskKind { return models.KindSpeechToText }

func (a *SpeechToText) Invoke(ctx context.Context, call provider.Call, cfg config.ProviderConfig) (provider.RawResponse, error) {
	if _, ok := call.Task.(models.SpeechToText); !ok {
		return nil, wrongTask(a.Kind(), call.Task)
	}
	if err := requireMedia(a.Kind(), call.Media); err != nil {
		return nil, err
	}
	resp, err := a.client.postBinary(ctx, cfg, call.Media, "application/json")
	if err != nil {
		return nil, err
	}
	transcript, err := decodeObject[provider.RawTranscript](cfg.Model, resp.Body)
	if err != nil {
		return nil, err
	}
	return transcript, nil
}

type textToSpeechRequest struct {
	Inputs string `json:"inputs"`
}

// TextToSpeech synthesizes speech and receives a binary audio body.
type TextToSpeech struct {
	client *Client
}

func (a *TextToSpeech) Kind() models.TaskKind { return models.KindTextToSpeech }

func (a *TextToSpeech) Invoke(ctx context.Context, call provider.Call, cfg config.ProviderConfig) (provider.RawResponse, error) {
	task, ok := call.Task.(models.TextToSpeech)
	if !ok {
		return nil, wrongTask(a.Kind(), call.Task)
	}
	resp, err := a.client.postJSON(ctx, cfg, textToSpeechRequest{Inputs: task.Text}, "audio/*")
	if err != nil {
		return nil, err
	}
	return provider.RawAudio{Bytes: resp.Body, ContentType: resp.ContentType}, nil
}

// AudioToAudio refines or separates a clip. The provider answers with a
// list of base64 encoded tracks.
type AudioToAudio struct {
	client *Client
}

func (a *AudioToAudio) Kind() models.TaskKind { return models.KindAudioToAudio }

func (a *AudioToAudio) Invoke(ctx context.Context, call provider.Call, cfg config.ProviderConfig) (provider.RawResponse, error) {
	if _, ok := call.Task.(models.AudioToAudio); !ok {
		return nil, wrongTask(a.Kind(), call.Task)
	}
	if err := requireMedia(a.Kind(), call.Media); err != nil {
		return nil, err
	}
	resp, err := a.client.postBinary(ctx, cfg, call.Media, "application/json")
	if err != nil {
		return nil, err
	}
	tracks, err := decodeList[provider.RawAudioTrack](cfg.Model, resp.Body)
	if err != nil {
		return nil, err
	}
	return provider.RawAudioTracks(tracks), nil
}
