package service

import (
	"context"
	"os"
	"testing"
	"time"

	"meditalk-go/internal/model"
	"meditalk-go/pkg/log"
	"meditalk-go/pkg/translator"

	"gorm.io/gorm"
)

func TestMain(m *testing.M) {
	log.Init("error", "json", "")
	os.Exit(m.Run())
}

// fakeUserRepo 是 UserRepository 的内存实现。
type fakeUserRepo struct {
	users    map[uint]*model.User
	byEmail  map[string]*model.User
	findErr  error
	patients []model.User
	listErr  error
}

func newFakeUserRepo(users ...*model.User) *fakeUserRepo {
	r := &fakeUserRepo{
		users:   make(map[uint]*model.User),
		byEmail: make(map[string]*model.User),
	}
	for _, u := range users {
		r.users[u.ID] = u
		r.byEmail[u.Email] = u
	}
	return r
}

func (r *fakeUserRepo) Create(user *model.User) error {
	if user.ID == 0 {
		user.ID = uint(len(r.users) + 1)
	}
	r.users[user.ID] = user
	r.byEmail[user.Email] = user
	return nil
}

func (r *fakeUserRepo) FindByEmail(email string) (*model.User, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	u, ok := r.byEmail[email]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

func (r *fakeUserRepo) FindByID(userID uint) (*model.User, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	u, ok := r.users[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

func (r *fakeUserRepo) FindPatients() ([]model.User, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	return r.patients, nil
}

// fakeConversationRepo 是 ConversationRepository 的内存实现。
type fakeConversationRepo struct {
	conversations map[uint]*model.Conversation
	users         map[uint]*model.User
	nextID        uint
	listItems     []model.ConversationListItem
	searchItems   []model.ConversationListItem
	listErr       error
	createErr     error
	updateErr     error
	endAndCreates int
}

func newFakeConversationRepo(users ...*model.User) *fakeConversationRepo {
	r := &fakeConversationRepo{
		conversations: make(map[uint]*model.Conversation),
		users:         make(map[uint]*model.User),
		nextID:        1,
	}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeConversationRepo) add(conv *model.Conversation) *model.Conversation {
	if conv.ID == 0 {
		conv.ID = r.nextID
	}
	if conv.ID >= r.nextID {
		r.nextID = conv.ID + 1
	}
	if conv.CreatedAt.IsZero() {
		conv.CreatedAt = time.Now()
	}
	r.conversations[conv.ID] = conv
	return conv
}

func (r *fakeConversationRepo) Create(conv *model.Conversation) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.add(conv)
	return nil
}

func (r *fakeConversationRepo) FindByID(id uint) (*model.Conversation, error) {
	conv, ok := r.conversations[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return conv, nil
}

func (r *fakeConversationRepo) FindByIDForUser(id, userID uint) (*model.ConversationDetail, error) {
	conv, ok := r.conversations[id]
	if !ok || !conv.IsParticipant(userID) {
		return nil, gorm.ErrRecordNotFound
	}
	detail := &model.ConversationDetail{Conversation: *conv}
	if doctor, ok := r.users[conv.DoctorID]; ok {
		detail.DoctorFirstName, detail.DoctorLastName = doctor.FirstName, doctor.LastName
	}
	if patient, ok := r.users[conv.PatientID]; ok {
		detail.PatientFirstName, detail.PatientLastName = patient.FirstName, patient.LastName
	}
	return detail, nil
}

func (r *fakeConversationRepo) FindActive(doctorID, patientID uint) (*model.Conversation, error) {
	var latest *model.Conversation
	for _, conv := range r.conversations {
		if conv.DoctorID == doctorID && conv.PatientID == patientID && conv.Status == model.StatusActive {
			if latest == nil || conv.CreatedAt.After(latest.CreatedAt) {
				latest = conv
			}
		}
	}
	if latest == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return latest, nil
}

func (r *fakeConversationRepo) ListByUser(userID uint, role string) ([]model.ConversationListItem, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	return r.listItems, nil
}

func (r *fakeConversationRepo) Search(userID uint, role, term string) ([]model.ConversationListItem, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	return r.searchItems, nil
}

func (r *fakeConversationRepo) UpdateStatus(id uint, status string) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	conv, ok := r.conversations[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	conv.Status = status
	if status == model.StatusEnded {
		now := time.Now()
		conv.EndedAt = &now
	}
	return nil
}

func (r *fakeConversationRepo) EndAndCreate(oldID uint, fresh *model.Conversation) error {
	if err := r.UpdateStatus(oldID, model.StatusEnded); err != nil {
		return err
	}
	r.add(fresh)
	r.endAndCreates++
	return nil
}

// fakeMessageRepo 是 MessageRepository 的内存实现。
type fakeMessageRepo struct {
	messages  []model.MessageView
	createErr error
	listErr   error
}

func (r *fakeMessageRepo) Create(msg *model.Message) error {
	if r.createErr != nil {
		return r.createErr
	}
	msg.ID = uint(len(r.messages) + 1)
	r.messages = append(r.messages, model.MessageView{Message: *msg})
	return nil
}

func (r *fakeMessageRepo) ListByConversation(conversationID uint) ([]model.MessageView, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	var views []model.MessageView
	for _, view := range r.messages {
		if view.ConversationID == conversationID {
			views = append(views, view)
		}
	}
	return views, nil
}

// fakeSummaryRepo 是 SummaryRepository 的内存实现，按 conversation_id 覆盖写。
type fakeSummaryRepo struct {
	summaries map[uint]*model.Summary
	upserts   int
	upsertErr error
}

func newFakeSummaryRepo() *fakeSummaryRepo {
	return &fakeSummaryRepo{summaries: make(map[uint]*model.Summary)}
}

func (r *fakeSummaryRepo) Upsert(summary *model.Summary) error {
	if r.upsertErr != nil {
		return r.upsertErr
	}
	if existing, ok := r.summaries[summary.ConversationID]; ok {
		summary.ID = existing.ID
	} else if summary.ID == 0 {
		summary.ID = uint(len(r.summaries) + 1)
	}
	r.summaries[summary.ConversationID] = summary
	r.upserts++
	return nil
}

func (r *fakeSummaryRepo) FindByConversation(conversationID uint) (*model.Summary, error) {
	summary, ok := r.summaries[conversationID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return summary, nil
}

// fakeGateway 是 translator.Gateway 的测试替身，
// 默认把译文标记为 "<target>:" 前缀以便断言翻译方向。
type fakeGateway struct {
	calls  int
	lastQ  string
	lastTo string
	err    error
}

func (g *fakeGateway) Translate(ctx context.Context, text, targetLang, sourceLang string) (*translator.Result, error) {
	g.calls++
	g.lastQ, g.lastTo = text, targetLang
	if g.err != nil {
		return nil, g.err
	}
	return &translator.Result{
		OriginalText:   text,
		TranslatedText: targetLang + ":" + text,
		SourceLanguage: sourceLang,
		TargetLanguage: targetLang,
	}, nil
}

func (g *fakeGateway) TranslateText(ctx context.Context, text, targetLang, sourceLang string) string {
	result, err := g.Translate(ctx, text, targetLang, sourceLang)
	if err != nil {
		return text
	}
	return result.TranslatedText
}

// 常用的测试用户。
func testDoctor() *model.User {
	return &model.User{ID: 1, Email: "doctor@demo.com", Role: model.RoleDoctor, FirstName: "Dr. Sarah", LastName: "Johnson"}
}

func testPatient() *model.User {
	return &model.User{ID: 2, Email: "patient@demo.com", Role: model.RolePatient, FirstName: "Maria", LastName: "Garcia"}
}
