package service

import (
	"context"
	"errors"
	"testing"

	"meditalk-go/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMessageFixture() (*fakeConversationRepo, *fakeMessageRepo, *fakeGateway, *model.Conversation) {
	doctor, patient := testDoctor(), testPatient()
	convRepo := newFakeConversationRepo(doctor, patient)
	conv := convRepo.add(&model.Conversation{
		DoctorID: doctor.ID, PatientID: patient.ID,
		DoctorLanguage: "en", PatientLanguage: "es", Status: model.StatusActive,
	})
	return convRepo, &fakeMessageRepo{}, &fakeGateway{}, conv
}

func TestSendMessage(t *testing.T) {
	ctx := context.Background()
	doctor, patient := testDoctor(), testPatient()

	t.Run("空白消息在任何调用之前被拒绝", func(t *testing.T) {
		convRepo, msgRepo, gateway, conv := newMessageFixture()
		svc := NewMessageService(convRepo, msgRepo, gateway)

		_, err := svc.Send(ctx, conv.ID, doctor, "   \t\n", true)
		assert.ErrorIs(t, err, ErrEmptyMessage)
		assert.Equal(t, 0, gateway.calls)
		assert.Empty(t, msgRepo.messages)
	})

	t.Run("非参与者不能发送消息", func(t *testing.T) {
		convRepo, msgRepo, gateway, conv := newMessageFixture()
		svc := NewMessageService(convRepo, msgRepo, gateway)

		stranger := &model.User{ID: 99, Role: model.RoleDoctor}
		_, err := svc.Send(ctx, conv.ID, stranger, "hello", false)
		assert.ErrorIs(t, err, ErrConversationNotFound)
	})

	t.Run("已结束的会话拒绝新消息", func(t *testing.T) {
		convRepo, msgRepo, gateway, conv := newMessageFixture()
		require.NoError(t, convRepo.UpdateStatus(conv.ID, model.StatusEnded))
		svc := NewMessageService(convRepo, msgRepo, gateway)

		_, err := svc.Send(ctx, conv.ID, doctor, "hello", false)
		assert.ErrorIs(t, err, ErrConversationEnded)
		assert.Empty(t, msgRepo.messages)
	})

	t.Run("不翻译时译文与原文逐字相同", func(t *testing.T) {
		convRepo, msgRepo, gateway, conv := newMessageFixture()
		svc := NewMessageService(convRepo, msgRepo, gateway)

		msg, err := svc.Send(ctx, conv.ID, doctor, "How are you feeling?", false)
		require.NoError(t, err)
		assert.Equal(t, "How are you feeling?", msg.OriginalText)
		assert.Equal(t, "How are you feeling?", msg.TranslatedText)
		assert.Equal(t, 0, gateway.calls)
	})

	t.Run("医生发送时翻译到患者语言", func(t *testing.T) {
		convRepo, msgRepo, gateway, conv := newMessageFixture()
		svc := NewMessageService(convRepo, msgRepo, gateway)

		msg, err := svc.Send(ctx, conv.ID, doctor, "Take this twice daily", true)
		require.NoError(t, err)
		assert.Equal(t, "es", gateway.lastTo)
		assert.Equal(t, "es:Take this twice daily", msg.TranslatedText)
	})

	t.Run("患者发送时翻译到医生语言", func(t *testing.T) {
		convRepo, msgRepo, gateway, conv := newMessageFixture()
		svc := NewMessageService(convRepo, msgRepo, gateway)

		msg, err := svc.Send(ctx, conv.ID, patient, "Me duele la cabeza", true)
		require.NoError(t, err)
		assert.Equal(t, "en", gateway.lastTo)
		assert.Equal(t, "en:Me duele la cabeza", msg.TranslatedText)
	})

	t.Run("翻译失败降级为原文且发送成功", func(t *testing.T) {
		convRepo, msgRepo, gateway, conv := newMessageFixture()
		gateway.err = errors.New("translation service timeout, please try again")
		svc := NewMessageService(convRepo, msgRepo, gateway)

		msg, err := svc.Send(ctx, conv.ID, doctor, "Take this twice daily", true)
		require.NoError(t, err)
		assert.Equal(t, "Take this twice daily", msg.TranslatedText)
		assert.Len(t, msgRepo.messages, 1)
	})

	t.Run("消息记录发送时刻的角色快照", func(t *testing.T) {
		convRepo, msgRepo, gateway, conv := newMessageFixture()
		svc := NewMessageService(convRepo, msgRepo, gateway)

		msg, err := svc.Send(ctx, conv.ID, patient, "hola", false)
		require.NoError(t, err)
		assert.Equal(t, model.RolePatient, msg.SenderRole)
		assert.Equal(t, model.MessageTypeText, msg.MessageType)
		assert.Equal(t, patient.ID, msg.SenderID)
	})
}

func TestListMessages(t *testing.T) {
	doctor := testDoctor()

	t.Run("仅参与者可见", func(t *testing.T) {
		convRepo, msgRepo, gateway, conv := newMessageFixture()
		svc := NewMessageService(convRepo, msgRepo, gateway)

		_, err := svc.List(conv.ID, 99)
		assert.ErrorIs(t, err, ErrConversationNotFound)
	})

	t.Run("读故障降级为空列表", func(t *testing.T) {
		convRepo, msgRepo, gateway, conv := newMessageFixture()
		msgRepo.listErr = errors.New("connection refused")
		svc := NewMessageService(convRepo, msgRepo, gateway)

		views, err := svc.List(conv.ID, doctor.ID)
		require.NoError(t, err)
		assert.NotNil(t, views)
		assert.Empty(t, views)
	})

	t.Run("返回会话内的全部消息", func(t *testing.T) {
		convRepo, msgRepo, gateway, conv := newMessageFixture()
		svc := NewMessageService(convRepo, msgRepo, gateway)

		_, err := svc.Send(context.Background(), conv.ID, doctor, "first", false)
		require.NoError(t, err)
		_, err = svc.Send(context.Background(), conv.ID, doctor, "second", false)
		require.NoError(t, err)

		views, err := svc.List(conv.ID, doctor.ID)
		require.NoError(t, err)
		require.Len(t, views, 2)
		assert.Equal(t, "first", views[0].OriginalText)
		assert.Equal(t, "second", views[1].OriginalText)
	})
}

func TestPreview(t *testing.T) {
	convRepo, msgRepo, gateway, _ := newMessageFixture()
	svc := NewMessageService(convRepo, msgRepo, gateway)

	result, err := svc.Preview(context.Background(), "Hello", "es", "en")
	require.NoError(t, err)
	assert.Equal(t, "es:Hello", result.TranslatedText)

	gateway.err = errors.New("INVALID LANGUAGE PAIR SPECIFIED")
	_, err = svc.Preview(context.Background(), "Hello", "xx", "en")
	assert.EqualError(t, err, "INVALID LANGUAGE PAIR SPECIFIED")
}
