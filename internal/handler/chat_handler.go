package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"meditalk-go/internal/model"
	"meditalk-go/internal/service"
	"meditalk-go/pkg/log"
	"meditalk-go/pkg/token"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // 允许所有来源
	},
}

// ChatHandler 负责处理会话的 WebSocket 实时通道。
// 同一会话的医患双方连接到同一个房间，新消息在持久化后推送给双方。
type ChatHandler struct {
	messageService service.MessageService
	convService    service.ConversationService
	userService    service.UserService
	jwtManager     *token.JWTManager
	rooms          sync.Map // key: conversationID, value: *chatRoom
}

// chatRoom 是单个会话的连接集合。
type chatRoom struct {
	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

// NewChatHandler 创建一个新的 ChatHandler。
func NewChatHandler(messageService service.MessageService, convService service.ConversationService,
	userService service.UserService, jwtManager *token.JWTManager) *ChatHandler {
	return &ChatHandler{
		messageService: messageService,
		convService:    convService,
		userService:    userService,
		jwtManager:     jwtManager,
	}
}

// inboundMessage 是客户端通过 WebSocket 发来的消息帧。
type inboundMessage struct {
	Text      string `json:"text"`
	Translate bool   `json:"translate"`
}

// Handle 处理一个传入的 WebSocket 连接。
// 路径为 /ws/conversations/:id/:token，浏览器 WebSocket 无法携带请求头，
// 所以 token 放在路径中并在升级前校验。
func (h *ChatHandler) Handle(c *gin.Context) {
	tokenString := c.Param("token")
	claims, err := h.jwtManager.VerifyToken(tokenString)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"code": http.StatusUnauthorized, "message": "无效的 token", "data": nil})
		return
	}

	user, err := h.userService.GetProfile(claims.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "无法获取用户信息", "data": nil})
		return
	}

	conversationID, ok := pathID(c, "id")
	if !ok {
		return
	}

	// 升级前确认用户是该会话的参与者
	if _, err := h.convService.GetByID(conversationID, user.ID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"code": http.StatusNotFound, "message": "会话不存在", "data": nil})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("WebSocket 升级失败", err)
		return
	}
	defer conn.Close()

	room := h.joinRoom(conversationID, conn)
	defer h.leaveRoom(conversationID, room, conn)

	log.Infof("WebSocket 连接已建立，会话: %d, 用户: %s", conversationID, user.Email)

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			log.Warnf("从 WebSocket 读取消息失败: %v", err)
			break
		}

		var in inboundMessage
		if err := json.Unmarshal(raw, &in); err != nil {
			h.writeError(conn, "无效的消息格式")
			continue
		}

		msg, err := h.messageService.Send(c.Request.Context(), conversationID, user, in.Text, in.Translate)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrEmptyMessage):
				h.writeError(conn, err.Error())
			case errors.Is(err, service.ErrConversationEnded):
				h.writeError(conn, "conversation has ended")
			default:
				log.Errorf("WebSocket 发送消息失败: conversation=%d, error: %v", conversationID, err)
				h.writeError(conn, "发送消息失败")
			}
			continue
		}

		view := model.MessageView{
			Message:         *msg,
			SenderFirstName: user.FirstName,
			SenderLastName:  user.LastName,
		}
		h.broadcast(room, view)
	}
}

// joinRoom 把连接登记到会话对应的房间，房间不存在时创建。
func (h *ChatHandler) joinRoom(conversationID uint, conn *websocket.Conn) *chatRoom {
	value, _ := h.rooms.LoadOrStore(conversationID, &chatRoom{conns: make(map[*websocket.Conn]struct{})})
	room := value.(*chatRoom)
	room.mu.Lock()
	room.conns[conn] = struct{}{}
	room.mu.Unlock()
	return room
}

// leaveRoom 注销连接，房间空了就从注册表删除。
func (h *ChatHandler) leaveRoom(conversationID uint, room *chatRoom, conn *websocket.Conn) {
	room.mu.Lock()
	delete(room.conns, conn)
	empty := len(room.conns) == 0
	room.mu.Unlock()
	if empty {
		h.rooms.Delete(conversationID)
	}
}

// broadcast 把一条已持久化的消息推送给房间内的所有连接。
func (h *ChatHandler) broadcast(room *chatRoom, view model.MessageView) {
	payload := map[string]interface{}{
		"type":      "message",
		"data":      view,
		"timestamp": time.Now().UnixMilli(),
	}
	b, err := json.Marshal(payload)
	if err != nil {
		log.Errorf("序列化 WebSocket 消息失败: %v", err)
		return
	}

	room.mu.Lock()
	defer room.mu.Unlock()
	for conn := range room.conns {
		if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
			log.Warnf("向 WebSocket 推送消息失败: %v", err)
		}
	}
}

// writeError 向单个连接回发统一格式的错误帧。
func (h *ChatHandler) writeError(conn *websocket.Conn, message string) {
	b, _ := json.Marshal(map[string]string{"type": "error", "error": message})
	_ = conn.WriteMessage(websocket.TextMessage, b)
}
