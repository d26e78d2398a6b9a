package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/ComplianceSentinel/internal/config"
	"github.com/turtacn/ComplianceSentinel/internal/domain/notification"
	"github.com/turtacn/ComplianceSentinel/internal/domain/obligation"
	"github.com/turtacn/ComplianceSentinel/internal/infrastructure/monitoring/logging"
	apperrors "github.com/turtacn/ComplianceSentinel/pkg/errors"
)

type fakeToken struct {
	completes bool
	err       error
}

func (t *fakeToken) Wait() bool                     { return t.completes }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return t.completes }
func (t *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (t *fakeToken) Error() error { return t.err }

type published struct {
	topic   string
	qos     byte
	payload []byte
}

type fakeClient struct {
	connected    bool
	token        *fakeToken
	published    []published
	disconnected bool
}

func (c *fakeClient) IsConnected() bool { return c.connected }
func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token {
	c.published = append(c.published, published{topic: topic, qos: qos, payload: payload.([]byte)})
	return c.token
}
func (c *fakeClient) Disconnect(uint) { c.disconnected = true }

func testJob() *notification.Job {
	return &notification.Job{
		ID:             "job-1",
		AlertID:        "alert-1",
		OrganizationID: "org-1",
		Ref:            obligation.EntityRef{Kind: obligation.KindEquipmentCheck, ID: "eq-9"},
		Channel:        notification.ChannelPush,
		Address:        "members/m1",
		Severity:       obligation.TierWarning,
		Trigger:        notification.TriggerCreated,
		Title:          "Boiler ISCIR",
		DedupKey:       "abc",
	}
}

func newTestSender(c *fakeClient) *PushSender {
	return newPushSender(c, config.MQTTConfig{QoS: 1, TopicPrefix: "sentinel/alerts/"}, logging.NewNopLogger())
}

func TestPushSender_Send(t *testing.T) {
	c := &fakeClient{connected: true, token: &fakeToken{completes: true}}
	s := newTestSender(c)
	assert.Equal(t, notification.ChannelPush, s.Channel())

	require.NoError(t, s.Send(context.Background(), testJob()))
	require.Len(t, c.published, 1)
	assert.Equal(t, "sentinel/alerts/members/m1", c.published[0].topic)
	assert.Equal(t, byte(1), c.published[0].qos)

	var p pushPayload
	require.NoError(t, json.Unmarshal(c.published[0].payload, &p))
	assert.Equal(t, "warning", p.Severity)
	assert.Equal(t, "equipment_check:eq-9", p.EntityRef)
	assert.Equal(t, "abc", p.DedupKey)
	assert.Contains(t, p.Subject, "Boiler ISCIR")

	s.Close()
	assert.True(t, c.disconnected)
}

func TestPushSender_Failures(t *testing.T) {
	ctx := context.Background()

	noAddr := testJob()
	noAddr.Address = ""
	err := newTestSender(&fakeClient{connected: true, token: &fakeToken{completes: true}}).Send(ctx, noAddr)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeDispatchPermanent))

	err = newTestSender(&fakeClient{connected: false}).Send(ctx, testJob())
	assert.True(t, apperrors.IsTransient(err))

	err = newTestSender(&fakeClient{connected: true, token: &fakeToken{completes: false}}).Send(ctx, testJob())
	assert.True(t, apperrors.IsTransient(err))

	err = newTestSender(&fakeClient{connected: true, token: &fakeToken{completes: true, err: errors.New("not authorized")}}).Send(ctx, testJob())
	assert.True(t, apperrors.IsTransient(err))
}

//Personal.AI order the ending
